package storage

import (
	"context"
	"sort"
	"sync"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// fakeEtcd is an in-memory stand-in for the subset of the etcd client the
// store uses. Transaction comparisons are treated as "key does not exist",
// which is the only comparison the store issues.
type fakeEtcd struct {
	mu      sync.Mutex
	kv      map[string]string
	leases  int64
	revoked []clientv3.LeaseID
	commits int
	closed  bool
}

func newFakeEtcd() *fakeEtcd {
	return &fakeEtcd{kv: make(map[string]string)}
}

func (f *fakeEtcd) matching(op clientv3.Op) []string {
	key := string(op.KeyBytes())
	end := string(op.RangeBytes())
	var keys []string
	for k := range f.kv {
		if (end == "" && k == key) || (end != "" && k >= key && k < end) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (f *fakeEtcd) Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op := clientv3.OpGet(key, opts...)
	resp := &clientv3.GetResponse{}
	for _, k := range f.matching(op) {
		kv := &mvccpb.KeyValue{Key: []byte(k)}
		if !op.IsKeysOnly() {
			kv.Value = []byte(f.kv[k])
		}
		resp.Kvs = append(resp.Kvs, kv)
	}
	resp.Count = int64(len(resp.Kvs))
	return resp, nil
}

func (f *fakeEtcd) Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = val
	return &clientv3.PutResponse{}, nil
}

func (f *fakeEtcd) Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apply(clientv3.OpDelete(key, opts...))
	return &clientv3.DeleteResponse{}, nil
}

func (f *fakeEtcd) Grant(ctx context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leases++
	return &clientv3.LeaseGrantResponse{ID: clientv3.LeaseID(f.leases), TTL: ttl}, nil
}

func (f *fakeEtcd) Revoke(ctx context.Context, id clientv3.LeaseID) (*clientv3.LeaseRevokeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, id)
	return &clientv3.LeaseRevokeResponse{}, nil
}

func (f *fakeEtcd) Txn(ctx context.Context) clientv3.Txn {
	return &fakeTxn{f: f}
}

func (f *fakeEtcd) Close() error {
	f.closed = true
	return nil
}

func (f *fakeEtcd) apply(op clientv3.Op) {
	switch {
	case op.IsPut():
		f.kv[string(op.KeyBytes())] = string(op.ValueBytes())
	case op.IsDelete():
		for _, k := range f.matching(op) {
			delete(f.kv, k)
		}
	}
}

type fakeTxn struct {
	f     *fakeEtcd
	cmps  []clientv3.Cmp
	then  []clientv3.Op
	other []clientv3.Op
}

func (t *fakeTxn) If(cs ...clientv3.Cmp) clientv3.Txn {
	t.cmps = append(t.cmps, cs...)
	return t
}

func (t *fakeTxn) Then(ops ...clientv3.Op) clientv3.Txn {
	t.then = append(t.then, ops...)
	return t
}

func (t *fakeTxn) Else(ops ...clientv3.Op) clientv3.Txn {
	t.other = append(t.other, ops...)
	return t
}

func (t *fakeTxn) Commit() (*clientv3.TxnResponse, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.f.commits++

	ok := true
	for i := range t.cmps {
		if _, exists := t.f.kv[string(t.cmps[i].KeyBytes())]; exists {
			ok = false
		}
	}
	ops := t.then
	if !ok {
		ops = t.other
	}
	for _, op := range ops {
		t.f.apply(op)
	}
	return &clientv3.TxnResponse{Succeeded: ok}, nil
}
