/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package etcd provides a TemplateRegistry backed by an etcd cluster, for
// deployments that run more than one MessageBuffer per Observation Domain
// across process boundaries and need Templates shared between them.
package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/flowforge/ipfixcodec"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/namespace"
)

// TemplateRegistry mirrors an in-memory ipfix.StatefulTemplateRegistry into
// an etcd prefix, so that every process watching the same prefix converges
// on the same Template set. Local reads and writes go through the wrapped
// cache directly; writes are additionally PUT to etcd, and a watch loop
// folds remote PUTs back into the local cache.
//
// revisions tracks, per TemplateKey, the etcd key version last applied
// locally, so that updateLocalTemplates can ignore stale or echoed events
// instead of looping a local write back into itself.
type TemplateRegistry struct {
	client *clientv3.Client

	mu *sync.RWMutex

	cache ipfixcodec.StatefulTemplateRegistry

	revisions map[ipfixcodec.TemplateKey]int64

	namespace string
	name      string
	prefix    string
}

var _ ipfixcodec.StatefulTemplateRegistry = &TemplateRegistry{}

// NewDefaultTemplateRegistry wraps cache under etcd prefix "templates/default/".
func NewDefaultTemplateRegistry(client *clientv3.Client, cache ipfixcodec.StatefulTemplateRegistry) *TemplateRegistry {
	return NewNamedTemplateRegistry("default", client, cache)
}

// NewNamedTemplateRegistry wraps cache under etcd prefix "templates/<name>/".
func NewNamedTemplateRegistry(name string, client *clientv3.Client, cache ipfixcodec.StatefulTemplateRegistry) *TemplateRegistry {
	ns := "templates"
	prefix := ns + "/"

	client.KV = namespace.NewKV(client.KV, prefix)
	client.Watcher = namespace.NewWatcher(client.Watcher, prefix)
	client.Lease = namespace.NewLease(client.Lease, prefix)

	return &TemplateRegistry{
		client:    client,
		cache:     cache,
		mu:        &sync.RWMutex{},
		revisions: make(map[ipfixcodec.TemplateKey]int64),
		namespace: ns,
		name:      name,
		prefix:    name + "/",
	}
}

func (t *TemplateRegistry) Add(ctx context.Context, key ipfixcodec.TemplateKey, template *ipfixcodec.Template) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var txErr error
	defer func() {
		if txErr != nil {
			t.cache.Delete(ctx, key)
		}
	}()

	if err := t.cache.Add(ctx, key, template); err != nil {
		return err
	}

	_, txErr = t.put(ctx, key, template)
	if txErr != nil {
		return txErr
	}

	t.revisions[key]++
	return nil
}

func (t *TemplateRegistry) GetAll(ctx context.Context) map[ipfixcodec.TemplateKey]*ipfixcodec.Template {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.cache.GetAll(ctx)
}

func (t *TemplateRegistry) Get(ctx context.Context, key ipfixcodec.TemplateKey) (*ipfixcodec.Template, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.cache.Get(ctx, key)
}

func (t *TemplateRegistry) Delete(ctx context.Context, key ipfixcodec.TemplateKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	defer delete(t.revisions, key)
	return t.cache.Delete(ctx, key)
}

func (t *TemplateRegistry) MarshalJSON() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	type its struct {
		Type  string          `json:"type,omitempty"`
		Name  string          `json:"name,omitempty"`
		Cache json.RawMessage `json:"cache,omitempty"`
	}

	cc, err := t.cache.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return json.Marshal(its{
		Type:  t.Type(),
		Name:  t.Name(),
		Cache: cc,
	})
}

func (t *TemplateRegistry) Name() string {
	return fmt.Sprintf("%s/%s", t.namespace, t.name)
}

func (t *TemplateRegistry) Type() string {
	return fmt.Sprintf("%s/%s", "etcd", t.cache.Type())
}

// Start loads every Template currently stored under this registry's etcd
// prefix into the wrapped cache, then watches the prefix for remote
// updates until ctx is cancelled.
func (t *TemplateRegistry) Start(ctx context.Context) error {
	logger := ipfixcodec.FromContext(ctx)

	if err := t.cache.Start(ctx); err != nil {
		return err
	}

	logger.V(2).Info("initializing template registry from etcd")
	if err := t.initialize(ctx); err != nil {
		return err
	}

	go t.sync(ctx)

	<-ctx.Done()
	return t.client.Close()
}

func (t *TemplateRegistry) Close(ctx context.Context) error {
	defer t.client.Close()
	return t.cache.Close(ctx)
}

func (t *TemplateRegistry) initialize(ctx context.Context) error {
	res, err := t.client.Get(ctx, t.prefix, clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return err
	}

	templateMap := make(map[ipfixcodec.TemplateKey]*ipfixcodec.Template)
	for _, e := range res.Kvs {
		tmpl := &ipfixcodec.Template{}
		if err := json.Unmarshal(e.Value, tmpl); err != nil {
			return err
		}
		kkey := ipfixcodec.TemplateKey{}
		if err := kkey.UnmarshalText([]byte(strings.TrimPrefix(string(e.Key), t.prefix))); err != nil {
			return err
		}
		templateMap[kkey] = tmpl
		t.revisions[kkey] = e.Version
	}
	for k, v := range templateMap {
		if err := t.cache.Add(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// sync receives etcd watch events for this registry's prefix and folds
// remote Template creation/updates into the local cache.
func (t *TemplateRegistry) sync(ctx context.Context) {
	logger := ipfixcodec.FromContext(ctx)
	rch := t.client.Watch(ctx, t.prefix, clientv3.WithPrefix())
	for {
		select {
		case ev := <-rch:
			if err := t.updateLocalTemplates(ctx, ev.Events); err != nil {
				logger.Error(err, "failed to update internal template registry from watch event")
			}
			logger.V(2).Info("completed sync cycle for etcd templates")
		case <-ctx.Done():
			return
		}
	}
}

func (t *TemplateRegistry) updateLocalTemplates(ctx context.Context, events []*clientv3.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range events {
		element := e.Kv

		kkey := strings.TrimPrefix(string(element.Key), t.prefix)
		key := ipfixcodec.TemplateKey{}
		if err := key.UnmarshalText([]byte(kkey)); err != nil {
			return err
		}

		if prevRev, ok := t.revisions[key]; ok && prevRev >= element.Version {
			continue
		}

		tmpl := &ipfixcodec.Template{}
		if err := json.Unmarshal(element.Value, tmpl); err != nil {
			return err
		}
		if err := t.cache.Add(ctx, key, tmpl); err != nil {
			return err
		}
		t.revisions[key] = element.Version
	}
	return nil
}

func (t *TemplateRegistry) put(ctx context.Context, key ipfixcodec.TemplateKey, template *ipfixcodec.Template) (*clientv3.PutResponse, error) {
	etcdKey := t.prefix + key.String()
	raw, err := json.Marshal(template)
	if err != nil {
		return nil, err
	}

	return t.client.Put(ctx, etcdKey, string(raw))
}
