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

package drive

import "fmt"

// ErrDriveFault returned when the drive answers a request with an
// error frame.
type ErrDriveFault struct {
	Addr uint16
	Code uint32
}

func (e ErrDriveFault) Error() string {
	return fmt.Sprintf("Drive reported error %#x for register %#x", e.Code, e.Addr)
}

// ErrBadResponse returned when a response frame does not match the
// request.
type ErrBadResponse struct {
	Reason string
}

func (e ErrBadResponse) Error() string {
	return fmt.Sprintf("Bad response from drive: %s", e.Reason)
}

// ErrRegisterNotCached returned when a register is requested from the
// state cache but was never observed.
type ErrRegisterNotCached struct {
	UID  string
	Axis int
}

func (e ErrRegisterNotCached) Error() string {
	return fmt.Sprintf("Register not found in state cache: %s axis %d", e.UID, e.Axis)
}
