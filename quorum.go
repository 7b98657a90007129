// Copyright (C) 2024 replistore contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package replistore

import "golang.org/x/exp/constraints"

// quorum is the resolved (required successes, acceptance predicate) pair
// for one write attempt, per spec §4.1.
type quorum struct {
	mode     SuccessMode
	required int
}

// newQuorum resolves the acceptance policy for mode against replication
// count r (already resolved: explicit |groups|, or Config.ReplicationCount).
func newQuorum(mode SuccessMode, n, r int) quorum {
	switch mode {
	case SuccessAny:
		return quorum{mode: mode, required: 1}
	case SuccessAll:
		return quorum{mode: mode, required: r}
	case SuccessN:
		return quorum{mode: mode, required: maxInt(1, n)}
	case SuccessQuorum:
		fallthrough
	default:
		return quorum{mode: SuccessQuorum, required: r/2 + 1}
	}
}

// accepts reports whether s successful replies satisfy the policy.
func (q quorum) accepts(s int) bool {
	if q.mode == SuccessAll {
		return s == q.required
	}
	return s >= q.required
}

func maxInt[T constraints.Integer](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func minInt[T constraints.Integer](a, b T) T {
	if a < b {
		return a
	}
	return b
}
