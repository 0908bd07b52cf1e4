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

package srv

import "fmt"

// ErrUnknownOperation ...
type ErrUnknownOperation struct {
	What string
}

func (e ErrUnknownOperation) Error() string {
	return fmt.Sprintf("Unknown operation: %s", e.What)
}

// ErrNoSession returned when a capture operation is requested for a
// drive that has no configured session.
type ErrNoSession struct {
	Drive string
	What  string
}

func (e ErrNoSession) Error() string {
	return fmt.Sprintf("No %s session configured for drive %s", e.What, e.Drive)
}
