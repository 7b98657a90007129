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

package metabalancer

import (
	"errors"
	"testing"
)

func TestWeightedCacheChooseUninitialized(t *testing.T) {
	c := NewWeightedCache()
	if _, err := c.Choose(3); !errors.Is(err, ErrUninitialized) {
		t.Fatalf("err = %v, want ErrUninitialized", err)
	}
}

func TestWeightedCacheChooseUnknownSize(t *testing.T) {
	c := NewWeightedCache()
	c.install(groupWeightsResponse{3: {{Groups: []int{1, 2, 3}, Weight: 1}}})
	if _, err := c.Choose(5); !errors.Is(err, ErrUnknownSize) {
		t.Fatalf("err = %v, want ErrUnknownSize", err)
	}
}

func TestWeightedCacheChooseSingleCandidateIsDeterministic(t *testing.T) {
	c := NewWeightedCache()
	c.install(groupWeightsResponse{3: {{Groups: []int{4, 5, 6}, Weight: 1}}})
	got, err := c.Choose(3)
	if err != nil {
		t.Fatalf("Choose: %s", err)
	}
	if len(got) != 3 || got[0] != 4 || got[1] != 5 || got[2] != 6 {
		t.Fatalf("got = %v, want [4 5 6]", got)
	}
}

func TestWeightedCacheChooseZeroWeightFallsBackToUniformPick(t *testing.T) {
	c := NewWeightedCache()
	c.install(groupWeightsResponse{2: {{Groups: []int{1, 2}, Weight: 0}, {Groups: []int{3, 4}, Weight: 0}}})
	got, err := c.Choose(2)
	if err != nil {
		t.Fatalf("Choose: %s", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
}

func TestWeightedCacheInstallReplacesSnapshot(t *testing.T) {
	c := NewWeightedCache()
	c.install(groupWeightsResponse{3: {{Groups: []int{1, 2, 3}, Weight: 1}}})
	c.install(groupWeightsResponse{3: {{Groups: []int{7, 8, 9}, Weight: 1}}})
	got, err := c.Choose(3)
	if err != nil {
		t.Fatalf("Choose: %s", err)
	}
	if got[0] != 7 || got[1] != 8 || got[2] != 9 {
		t.Fatalf("got = %v, want the replaced snapshot [7 8 9]", got)
	}
}

func TestWeightedCacheNextStampMonotonic(t *testing.T) {
	c := NewWeightedCache()
	a := c.nextStamp()
	b := c.nextStamp()
	if b != a+1 {
		t.Fatalf("nextStamp: got %d then %d, want a monotonic +1 sequence", a, b)
	}
}

type fakeTransport struct {
	resp any
	err  error
}

func (f *fakeTransport) Request(method string, req, resp any) error {
	if f.err != nil {
		return f.err
	}
	switch r := resp.(type) {
	case *groupWeightsResponse:
		*r = f.resp.(groupWeightsResponse)
	case *groupListResponse:
		*r = f.resp.(groupListResponse)
	case *groupInfoResponse:
		*r = f.resp.(groupInfoResponse)
	}
	return nil
}

func TestClientRefreshInstallsSnapshot(t *testing.T) {
	transport := &fakeTransport{resp: groupWeightsResponse{3: {{Groups: []int{1, 2, 3}, Weight: 1}}}}
	c := NewClient(transport)
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %s", err)
	}
	got, err := c.Choose(3)
	if err != nil {
		t.Fatalf("Choose: %s", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
}

func TestClientChooseAttemptsSynchronousRefreshWhenUninitialized(t *testing.T) {
	transport := &fakeTransport{resp: groupWeightsResponse{2: {{Groups: []int{9, 10}, Weight: 1}}}}
	c := NewClient(transport)
	got, err := c.Choose(2)
	if err != nil {
		t.Fatalf("Choose: %s", err)
	}
	if len(got) != 2 || got[0] != 9 || got[1] != 10 {
		t.Fatalf("got = %v, want [9 10] after the implicit synchronous refresh", got)
	}
}

func TestClientChooseReturnsEmptyNotErrorWhenStillUnresolvable(t *testing.T) {
	transport := &fakeTransport{err: errors.New("unreachable")}
	c := NewClient(transport)
	got, err := c.Choose(3)
	if err != nil {
		t.Fatalf("Choose must not propagate the refresh failure: %s", err)
	}
	if len(got) != 0 {
		t.Fatalf("got = %v, want empty", got)
	}
}

func TestClientGetGroupInfoCachesAnswer(t *testing.T) {
	calls := 0
	transport := &countingGroupInfoTransport{calls: &calls, status: "bad"}
	c := NewClient(transport)

	info, err := c.GetGroupInfo(5)
	if err != nil {
		t.Fatalf("GetGroupInfo: %s", err)
	}
	if info.Status != StatusBad {
		t.Fatalf("Status = %v, want StatusBad", info.Status)
	}
	if _, err := c.GetGroupInfo(5); err != nil {
		t.Fatalf("GetGroupInfo (cached): %s", err)
	}
	if calls != 1 {
		t.Fatalf("transport called %d times, want 1 (second call should hit the TTL cache)", calls)
	}
}

type countingGroupInfoTransport struct {
	calls  *int
	status string
}

func (ct *countingGroupInfoTransport) Request(method string, req, resp any) error {
	*ct.calls++
	r := resp.(*groupInfoResponse)
	r.Status = ct.status
	r.Couples = [][]int{{1, 2, 3}}
	return nil
}

func TestClientGroupListMethods(t *testing.T) {
	transport := &fakeTransport{resp: groupListResponse{Groups: [][]int{{1, 2}, {3, 4}}}}
	c := NewClient(transport)

	for name, fn := range map[string]func() ([][]int, error){
		"GetSymmetricGroups": c.GetSymmetricGroups,
		"GetBadGroups":       c.GetBadGroups,
		"GetAllGroups":       c.GetAllGroups,
	} {
		got, err := fn()
		if err != nil {
			t.Fatalf("%s: %s", name, err)
		}
		if len(got) != 2 {
			t.Fatalf("%s: len(got) = %d, want 2", name, len(got))
		}
	}
}

func TestClientWithNilTransportFailsCleanly(t *testing.T) {
	c := NewClient(nil)
	if c.Configured() {
		t.Fatal("Configured() should be false with a nil transport")
	}
	if err := c.Refresh(); err == nil {
		t.Fatal("Refresh with no transport should fail")
	}
	if _, err := c.GetSymmetricGroups(); err == nil {
		t.Fatal("GetSymmetricGroups with no transport should fail")
	}
}
