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
	"fmt"
	"strconv"
	"strings"

	"github.com/servolab/go-servo/pkg/srv"
)

// ParseSignal parses a UID:AXIS reference, the axis defaults to 1 when
// omitted.
func ParseSignal(s string) (srv.SignalRef, error) {
	parts := strings.SplitN(s, ":", 2)
	ref := srv.SignalRef{UID: parts[0], Axis: 1}
	if ref.UID == "" {
		return ref, fmt.Errorf("empty register reference %q", s)
	}
	if len(parts) == 2 {
		axis, err := strconv.Atoi(parts[1])
		if err != nil {
			return ref, fmt.Errorf("bad axis in register reference %q: %v", s, err)
		}
		ref.Axis = axis
	}
	return ref, nil
}

// ParseSignals parses a list of UID:AXIS references.
func ParseSignals(list []string) ([]srv.SignalRef, error) {
	refs := make([]srv.SignalRef, len(list))
	for i, s := range list {
		ref, err := ParseSignal(s)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
	}
	return refs, nil
}
