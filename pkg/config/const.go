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

const (
	ConfigDir  = ".go-servo"
	ConfigFile = "config"
	DBFile     = "state.db"

	DefaultLogLevel = "info"

	DefaultApiAddress = "127.0.0.1"
	DefaultApiPort    = 8060

	DefaultDriveName = "drive0"
	DefaultDriveIP   = "192.168.2.22"
	DefaultDriveAxes = 1

	// DefaultRequestTimeoutMs is the per register read/write round trip
	// budget for the UDP transport.
	DefaultRequestTimeoutMs = 200
)
