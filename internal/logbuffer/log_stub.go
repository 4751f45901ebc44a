//go:build !linux

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

import "errors"

// ErrUnsupported is returned by MapLog on platforms without the mmap
// support this package implements.
var ErrUnsupported = errors.New("logbuffer: mmap-backed logs are not supported on this platform")

// MapLog is unsupported outside Linux. Use NewHeapLog for a portable,
// process-local log.
func MapLog(path string, termLength, mtuLength, initialTermID, sessionID, streamID int32) (*Log, error) {
	return nil, ErrUnsupported
}
