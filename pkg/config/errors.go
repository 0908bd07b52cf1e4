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

package config

import (
	"fmt"
)

// ErrConfigFileExists returned when trying to persist a config file that already exists
type ErrConfigFileExists struct {
	Path string
}

func (e ErrConfigFileExists) Error() string {
	return fmt.Sprintf("Config file already exists: %s", e.Path)
}

// ErrDriveNotFound returned when a drive is not present in the config
type ErrDriveNotFound struct {
	Name string
}

func (e ErrDriveNotFound) Error() string {
	return fmt.Sprintf("Drive not found in config: %s", e.Name)
}
