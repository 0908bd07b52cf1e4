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

package dict

import (
	"errors"
	"fmt"
)

// ErrRegisterNotFound returned when a register UID is not present in
// the drive dictionary
type ErrRegisterNotFound struct {
	UID string
}

func (e ErrRegisterNotFound) Error() string {
	return fmt.Sprintf("Register not found in dictionary: %s", e.UID)
}

// IsNotFound reports whether err is a missing-register error.
func IsNotFound(err error) bool {
	var notFound ErrRegisterNotFound
	return errors.As(err, &notFound)
}
