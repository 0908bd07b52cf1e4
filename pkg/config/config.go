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
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type Drive struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
	Axes int    `json:"axes,omitempty"`
}

type ApiConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

type Config struct {
	LogLevel  string     `json:"log_level,omitempty"`
	DBPath    string     `json:"db_path,omitempty"`
	TimeoutMs int        `json:"timeout_ms,omitempty"`
	Api       *ApiConfig `json:"api,omitempty"`
	Drives    []*Drive   `json:"drives"`
	filepath  string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	err = os.WriteFile(c.filepath, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

// Load reads the config file if it exists. A missing file is not an
// error, defaults stay in place.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) GetDriveByName(name string) (*Drive, error) {
	for _, d := range c.Drives {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, ErrDriveNotFound{Name: name}
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, DBFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:  DefaultLogLevel,
		DBPath:    DefaultDBPath(),
		TimeoutMs: DefaultRequestTimeoutMs,
		Api: &ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		Drives: []*Drive{
			{
				Name: DefaultDriveName,
				IP:   DefaultDriveIP,
				Axes: DefaultDriveAxes,
			},
		},
		filepath: DefaultConfigPath(),
	}
}
