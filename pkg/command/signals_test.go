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

package command

import (
	"testing"
)

func TestParseSignal(t *testing.T) {
	ref, err := ParseSignal("CL_POS_FBK_VALUE:2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ref.UID != "CL_POS_FBK_VALUE" || ref.Axis != 2 {
		t.Fatalf("unexpected ref: %+v", ref)
	}

	ref, err = ParseSignal("CL_VEL_FBK_VALUE")
	if err != nil {
		t.Fatalf("parse without axis: %v", err)
	}
	if ref.Axis != 1 {
		t.Fatalf("axis = %d, want default 1", ref.Axis)
	}

	if _, err := ParseSignal(":2"); err == nil {
		t.Fatal("empty UID must be rejected")
	}
	if _, err := ParseSignal("FOO:x"); err == nil {
		t.Fatal("non-numeric axis must be rejected")
	}
}

func TestParseSignals(t *testing.T) {
	refs, err := ParseSignals([]string{"A:1", "B:2", "C"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(refs) != 3 || refs[1].Axis != 2 || refs[2].Axis != 1 {
		t.Fatalf("unexpected refs: %+v", refs)
	}
	if _, err := ParseSignals([]string{"A", ":9"}); err == nil {
		t.Fatal("bad entry must fail the whole list")
	}
}
