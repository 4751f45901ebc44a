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

package publication

import "fmt"

// A Status is either a non-negative stream position reached by an append,
// or one of a fixed set of negative sentinel values. Callers retry on a
// transient status and stop on a terminal one.
type Status int64

// Sentinel outcomes of Offer/TryClaim, matching Publication.h's own
// constants.
const (
	NotConnected        Status = -1
	BackPressured       Status = -2
	AdminAction         Status = -3
	PublicationClosed   Status = -4
	MaxPositionExceeded Status = -5
)

// IsTransient reports whether callers should retry the operation that
// produced this status.
func (s Status) IsTransient() bool {
	return s == NotConnected || s == BackPressured || s == AdminAction
}

// IsTerminal reports whether callers should stop retrying.
func (s Status) IsTerminal() bool {
	return s == PublicationClosed || s == MaxPositionExceeded
}

// OK reports whether s is a valid non-negative stream position.
func (s Status) OK() bool {
	return s >= 0
}

func (s Status) String() string {
	switch s {
	case NotConnected:
		return "NOT_CONNECTED"
	case BackPressured:
		return "BACK_PRESSURED"
	case AdminAction:
		return "ADMIN_ACTION"
	case PublicationClosed:
		return "PUBLICATION_CLOSED"
	case MaxPositionExceeded:
		return "MAX_POSITION_EXCEEDED"
	default:
		if s >= 0 {
			return fmt.Sprintf("position(%d)", int64(s))
		}
		return fmt.Sprintf("Status(%d)", int64(s))
	}
}
