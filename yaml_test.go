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

package ipfix

import (
	"os"
	"testing"
)

func TestWriteYAML(t *testing.T) {
	srcFile, err := os.Open("./hack/ipfix-information-elements.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer srcFile.Close()
	m, err := ReadIERegistryCSV(srcFile)
	if err != nil {
		t.Fatal(err)
	}

	file, err := os.CreateTemp("", "ipfix_iana_fields-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	if err := WriteYAML(file, m); err != nil {
		t.Fatal(err)
	}
}

func TestReadYAML(t *testing.T) {
	srcFile, err := os.Open("./hack/ipfix-information-elements.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer srcFile.Close()
	m, err := ReadIERegistryCSV(srcFile)
	if err != nil {
		t.Fatal(err)
	}

	destFile, err := os.CreateTemp("", "ipfix_iana_fields-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer destFile.Close()

	if err := WriteYAML(destFile, m); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(destFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	read, err := ReadYAML(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(read) != len(m) {
		t.Fatalf("expected %d fields round-tripped through yaml, got %d", len(m), len(read))
	}
}
