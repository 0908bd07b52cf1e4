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
	"fmt"
	"io"
	"log"
	"os"
)

type LogLevel int

const (
	LogPrefix     = "[go-servo] "
	ErrorPrefix   = "[error] "
	WarningPrefix = "[warn] "
	InfoPrefix    = "[info] "
	DebugPrefix   = "[debug] "
	HelpLevels    = "Must be one of: error, warning, info, debug."
)

const (
	ErrorLevel LogLevel = iota
	WarningLevel
	InfoLevel
	DebugLevel
)

var levelNames = map[string]LogLevel{
	"error":   ErrorLevel,
	"warning": WarningLevel,
	"info":    InfoLevel,
	"debug":   DebugLevel,
}

// ErrBadLevel returned when a level name is not one of the known ones.
type ErrBadLevel struct {
	Level string
}

func (e ErrBadLevel) Error() string {
	return fmt.Sprintf("Wrong log level: %s. %s", e.Level, HelpLevels)
}

type Logger struct {
	level LogLevel
	*log.Logger
}

var logger = &Logger{
	level:  InfoLevel,
	Logger: log.New(os.Stderr, LogPrefix, log.LstdFlags),
}

// ParseLevel maps a level name to its LogLevel.
func ParseLevel(strLevel string) (LogLevel, error) {
	level, ok := levelNames[strLevel]
	if !ok {
		return 0, ErrBadLevel{Level: strLevel}
	}
	return level, nil
}

func SetLevel(strLevel string) error {
	level, err := ParseLevel(strLevel)
	if err != nil {
		return err
	}
	logger.level = level
	return nil
}

// Init points the package logger at out and sets the level. A bad level
// name is reported to the caller, the previous level stays in place.
func Init(out io.Writer, strLevel string) error {
	logger.SetOutput(out)
	return SetLevel(strLevel)
}

func Error(format string, v ...interface{}) {
	if logger.level >= ErrorLevel {
		logger.Println(fmt.Sprintf(ErrorPrefix+format, v...))
	}
}

func Warning(format string, v ...interface{}) {
	if logger.level >= WarningLevel {
		logger.Println(fmt.Sprintf(WarningPrefix+format, v...))
	}
}

func Info(format string, v ...interface{}) {
	if logger.level >= InfoLevel {
		logger.Println(fmt.Sprintf(InfoPrefix+format, v...))
	}
}

func Debug(format string, v ...interface{}) {
	if logger.level >= DebugLevel {
		logger.Println(fmt.Sprintf(DebugPrefix+format, v...))
	}
}
