//go:build linux

/*
 *
 * Copyright 2025 gRPC authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package logbuffer

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MapLog creates (or opens, if it already exists and matches the requested
// geometry) a file-backed, memory-mapped log at path, sized for the given
// term length. The returned Log's Close unmaps and closes the file but does
// not remove it; callers that own the file's lifecycle remove it themselves.
func MapLog(path string, termLength, mtuLength, initialTermID, sessionID, streamID int32) (*Log, error) {
	if err := ValidateTermLength(termLength); err != nil {
		return nil, err
	}
	total := int64(termLength)*PartitionCount + int64(MetadataPageSize)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("logbuffer: open %s: %w", path, err)
	}
	cleanupFile := func() { file.Close() }

	info, err := file.Stat()
	if err != nil {
		cleanupFile()
		return nil, fmt.Errorf("logbuffer: stat %s: %w", path, err)
	}
	freshlyCreated := info.Size() == 0
	if freshlyCreated {
		if err := file.Truncate(total); err != nil {
			cleanupFile()
			return nil, fmt.Errorf("logbuffer: truncate %s: %w", path, err)
		}
	} else if info.Size() != total {
		cleanupFile()
		return nil, fmt.Errorf("logbuffer: %s has size %d, want %d", path, info.Size(), total)
	}

	mem, err := unix.Mmap(int(file.Fd()), 0, int(total), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		cleanupFile()
		return nil, fmt.Errorf("logbuffer: mmap %s: %w", path, err)
	}

	var log *Log
	if freshlyCreated {
		log, err = newLogFromMem(mem, termLength, mtuLength, initialTermID, sessionID, streamID)
	} else {
		log, err = wrapMappedLog(mem, termLength)
	}
	if err != nil {
		unix.Munmap(mem)
		cleanupFile()
		return nil, err
	}

	log.closer = func() error {
		syncErr := unix.Msync(mem, unix.MS_ASYNC)
		unmapErr := unix.Munmap(mem)
		closeErr := file.Close()
		if syncErr != nil {
			return syncErr
		}
		if unmapErr != nil {
			return unmapErr
		}
		return closeErr
	}
	return log, nil
}

// wrapMappedLog attaches to an already-initialized mapped log (the case
// where a subscriber or a restarted process opens an existing file) without
// re-initializing its metadata.
func wrapMappedLog(mem []byte, termLength int32) (*Log, error) {
	want := int(termLength)*PartitionCount + MetadataPageSize
	if len(mem) < want {
		return nil, fmt.Errorf("logbuffer: mapped region too small: have %d, need %d", len(mem), want)
	}
	log := &Log{mem: mem}
	for i := 0; i < PartitionCount; i++ {
		off := int(termLength) * i
		log.Partitions[i] = mem[off : off+int(termLength) : off+int(termLength)]
	}
	metaOff := int(termLength) * PartitionCount
	log.Meta = NewMetadata(mem[metaOff : metaOff+MetadataPageSize])
	return log, nil
}
