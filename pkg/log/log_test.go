/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for name, want := range levelNames {
		got, err := ParseLevel(name)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", name, got, err)
		}
	}
	_, err := ParseLevel("chatty")
	var bad ErrBadLevel
	if !errors.As(err, &bad) || bad.Level != "chatty" {
		t.Fatalf("err = %v, want ErrBadLevel", err)
	}
}

func TestInitBadLevelKeepsPrevious(t *testing.T) {
	out := &bytes.Buffer{}
	if err := Init(out, "warning"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := Init(out, "loud"); err == nil {
		t.Fatal("bad level must be reported")
	}
	Warning("still at warning")
	if !strings.Contains(out.String(), "still at warning") {
		t.Fatalf("level was lost, output: %q", out.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	out := &bytes.Buffer{}
	if err := Init(out, "info"); err != nil {
		t.Fatalf("init: %v", err)
	}
	Debug("hidden")
	Info("shown")
	s := out.String()
	if strings.Contains(s, "hidden") || !strings.Contains(s, "shown") {
		t.Fatalf("filtering broken, output: %q", s)
	}
}
