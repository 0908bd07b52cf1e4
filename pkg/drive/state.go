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

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/servolab/go-servo/pkg/log"
)

const (
	BucketNamePrefix = "reg_"
)

// State caches the last observed value of every register per drive.
// The cache survives restarts so tooling can inspect the last known
// drive configuration without a round trip.
type State struct {
	DB *bbolt.DB
}

// NewState opens the register database and makes sure every configured
// drive has its bucket.
func NewState(dbPath string, driveNames []string) (*State, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, err
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range driveNames {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucketName(name))); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &State{DB: db}, nil
}

func bucketName(driveName string) string {
	return fmt.Sprintf("%s%s", BucketNamePrefix, driveName)
}

func regKey(uid string, axis int) []byte {
	return []byte(fmt.Sprintf("%s/%d", uid, axis))
}

func uint32ToByte(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// Close ...
func (s *State) Close() {
	s.DB.Close()
}

// SetReg stores the last observed register value.
func (s *State) SetReg(driveName, uid string, axis int, value uint32) error {
	log.Debug("Caching register: %s axis %d value %x", uid, axis, value)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(driveName)))
		if b == nil {
			return fmt.Errorf("bucket not found: %s", bucketName(driveName))
		}
		return b.Put(regKey(uid, axis), uint32ToByte(value))
	})
}

// GetReg returns the last observed register value.
func (s *State) GetReg(driveName, uid string, axis int) (uint32, error) {
	var value uint32
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName(driveName)))
		if b == nil {
			return fmt.Errorf("bucket not found: %s", bucketName(driveName))
		}
		valueBytes := b.Get(regKey(uid, axis))
		if valueBytes == nil {
			return ErrRegisterNotCached{UID: uid, Axis: axis}
		}
		value = binary.BigEndian.Uint32(valueBytes)
		return nil
	}); err != nil {
		return 0, err
	}
	return value, nil
}
