// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pagemm_test

import (
	"embed"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ashwch/pagemm"
)

//go:embed testdata/scenarios.yaml
var scenarioFS embed.FS

type scenarioFile struct {
	Cases []scenarioCase `yaml:"cases"`
}

type scenarioCase struct {
	Name     string `yaml:"name"`
	Register []struct {
		Name string `yaml:"name"`
		Size int    `yaml:"size"`
	} `yaml:"register"`
	Allocs []struct {
		Name  string `yaml:"name"`
		Units int    `yaml:"units"`
		Count int    `yaml:"count"`
	} `yaml:"allocs"`
	WantArenas    map[string]int `yaml:"want_arenas"`
	WantAllocated map[string]int `yaml:"want_allocated"`
}

func loadScenarios(t *testing.T) scenarioFile {
	t.Helper()
	raw, err := scenarioFS.ReadFile("testdata/scenarios.yaml")
	require.NoError(t, err)

	var sf scenarioFile
	require.NoError(t, yaml.Unmarshal(raw, &sf))
	return sf
}

func TestScenarios(t *testing.T) {
	t.Parallel()

	sf := loadScenarios(t)
	for _, tc := range sf.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			m := pagemm.New()
			for _, r := range tc.Register {
				require.NoError(t, m.Register(r.Name, r.Size))
			}

			var allocated []any
			for _, a := range tc.Allocs {
				for i := 0; i < a.Count; i++ {
					p, err := m.Alloc(a.Name, a.Units)
					require.NoError(t, err)
					allocated = append(allocated, p)
				}
			}

			snap := m.Snapshot()
			gotArenas := make(map[string]int, len(snap.Types))
			for _, ts := range snap.Types {
				gotArenas[ts.Name] = len(ts.Arenas)
			}
			for name, want := range tc.WantArenas {
				require.Equal(t, want, gotArenas[name], "arena count for %s", name)
			}

			for name, want := range tc.WantAllocated {
				tr := findType(snap, name)
				require.NotNil(t, tr, "type %s not found in snapshot", name)
				got := 0
				for _, as := range tr.Arenas {
					for _, b := range as.Blocks {
						if b.State == "ALLOCATED" {
							got++
						}
					}
				}
				require.Equal(t, want, got, "allocated block count for %s", name)
			}
		})
	}
}

func findType(snap pagemm.Snapshot, name string) *pagemm.TypeSnapshot {
	for i := range snap.Types {
		if snap.Types[i].Name == name {
			return &snap.Types[i]
		}
	}
	return nil
}
