package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/Danyil-SY/assistant-bot/internal/config"
	"github.com/Danyil-SY/assistant-bot/internal/domain"
	"github.com/rs/zerolog"
)

// etcd rejects transactions with more operations than --max-txn-ops (128 by default).
const maxTxnOps = 128

const bookLock = "addressbook"

type etcdClient interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error)
	Grant(ctx context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error)
	Txn(ctx context.Context) clientv3.Txn
	Revoke(ctx context.Context, id clientv3.LeaseID) (*clientv3.LeaseRevokeResponse, error)
	Close() error
}

type heldLease struct {
	lockKey string
	lease   clientv3.LeaseID
}

// EtcdStore keeps one key per contact so several bot replicas can share a
// book. Each replica only writes the contacts it changed since its last Load
// or Save, so contacts added by other replicas survive.
type EtcdStore struct {
	client etcdClient
	cfg    *config.EtcdConfig
	owner  string
	logger zerolog.Logger

	mu sync.Mutex
	// known maps contact keys to the value this replica last read or wrote.
	known map[string]string
}

func NewEtcdStore(client etcdClient, cfg *config.EtcdConfig, owner string, logger zerolog.Logger) *EtcdStore {
	return &EtcdStore{
		client: client,
		cfg:    cfg,
		owner:  owner,
		logger: logger,
		known:  make(map[string]string),
	}
}

// Load reads every contact under the configured prefix, in saved order.
func (es *EtcdStore) Load(ctx context.Context) (*domain.AddressBook, error) {
	resp, err := es.client.Get(ctx, contactsPrefix(es.cfg.PathPrefix), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	type stored struct {
		position int
		record   *domain.Record
	}
	contacts := make([]stored, 0, len(resp.Kvs))
	known := make(map[string]string, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		keyStr := string(kv.Key)
		var wire etcdContact
		if err := json.Unmarshal(kv.Value, &wire); err != nil {
			es.logger.Error().Err(err).Msgf("[etcd_store] Failed to parse key: %s", keyStr)
			continue
		}
		name, err := nameFromKey(es.cfg.PathPrefix, keyStr)
		if err != nil {
			es.logger.Error().Err(err).Msgf("[etcd_store] Failed to parse key: %s", keyStr)
			continue
		}
		if wire.Name != name {
			es.logger.Warn().Str("key", keyStr).Str("name", wire.Name).Msg("[etcd_store] Contact name does not match its key, using key")
			wire.Name = name
		}
		r, err := wire.ToRecord()
		if err != nil {
			es.logger.Error().Err(err).Msgf("[etcd_store] Skipping invalid contact %s", wire.Name)
			continue
		}
		contacts = append(contacts, stored{position: wire.Position, record: r})
		known[keyStr] = string(kv.Value)
	}
	sort.SliceStable(contacts, func(i, j int) bool { return contacts[i].position < contacts[j].position })

	book := domain.NewAddressBook()
	for _, c := range contacts {
		book.Add(c.record)
	}

	es.mu.Lock()
	es.known = known
	es.mu.Unlock()
	return book, nil
}

// Save writes the contacts of book that changed since the last Load or Save
// and deletes the ones book no longer holds, all while holding the book lock.
// Keys this replica has never seen are left alone.
func (es *EtcdStore) Save(ctx context.Context, book *domain.AddressBook) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	wanted := make(map[string]string)
	for i, r := range book.Records() {
		key := keyForContact(es.cfg.PathPrefix, r.Name.String())
		b, err := json.Marshal(etcdContact{ContactRecord: FromRecord(r), Position: i})
		if err != nil {
			return fmt.Errorf("encode contact %s: %w", r.Name, err)
		}
		wanted[key] = string(b)
	}

	var ops []clientv3.Op
	for _, k := range sortedKeys(es.known) {
		if _, keep := wanted[k]; !keep {
			ops = append(ops, clientv3.OpDelete(k))
		}
	}
	for _, k := range sortedKeys(wanted) {
		if prev, ok := es.known[k]; !ok || prev != wanted[k] {
			ops = append(ops, clientv3.OpPut(k, wanted[k]))
		}
	}
	if len(ops) == 0 {
		return nil
	}

	return es.LockTransaction(ctx, []string{bookLock}, func() error {
		for start := 0; start < len(ops); start += maxTxnOps {
			end := min(start+maxTxnOps, len(ops))
			if _, err := es.client.Txn(ctx).Then(ops[start:end]...).Commit(); err != nil {
				return fmt.Errorf("write contacts: %w", err)
			}
		}
		es.known = wanted
		es.logger.Debug().Int("contacts", len(wanted)).Int("ops", len(ops)).Msg("[etcd_store] Saved address book")
		return nil
	})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LockTransaction provides a distributed lock using etcd transactions.
// It takes keys (as a slice of string), tries to acquire locks on all of them,
// runs the function, and finally releases all locks.
func (es *EtcdStore) LockTransaction(ctx context.Context, keys []string, fn func() error) error {
	leases := make([]heldLease, 0, len(keys))
	defer func() { es.release(ctx, leases) }()

	for _, key := range keys {
		lk := lockKey(es.cfg.PathPrefix, key)
		leaseResp, err := es.client.Grant(ctx, int64(es.cfg.LockTTL))
		if err != nil {
			return fmt.Errorf("failed to create lease: %w", err)
		}
		acquired := false
		deadline := time.Now().Add(time.Duration(es.cfg.LockTimeout * float64(time.Second)))
		for {
			txnResp, err := es.client.Txn(ctx).
				If(clientv3.Compare(clientv3.CreateRevision(lk), "=", 0)).
				Then(clientv3.OpPut(lk, es.owner, clientv3.WithLease(leaseResp.ID))).
				Commit()
			if err != nil {
				_, _ = es.client.Revoke(ctx, leaseResp.ID)
				return err
			}
			if txnResp.Succeeded {
				acquired = true
				leases = append(leases, heldLease{lockKey: lk, lease: leaseResp.ID})
				break
			}
			if !time.Now().Before(deadline) {
				break
			}
			select {
			case <-ctx.Done():
				_, _ = es.client.Revoke(ctx, leaseResp.ID)
				return ctx.Err()
			case <-time.After(time.Duration(es.cfg.LockRetryInterval * float64(time.Second))):
			}
		}
		if !acquired {
			_, _ = es.client.Revoke(ctx, leaseResp.ID)
			return fmt.Errorf("failed to acquire lock on %s", key)
		}
	}

	return fn()
}

// release drops the locks in reverse order.
func (es *EtcdStore) release(ctx context.Context, leases []heldLease) {
	for i := len(leases) - 1; i >= 0; i-- {
		l := leases[i]
		if _, err := es.client.Delete(ctx, l.lockKey); err != nil {
			es.logger.Warn().Err(err).Msgf("failed to delete lock key %s", l.lockKey)
		}
		if _, err := es.client.Revoke(ctx, l.lease); err != nil {
			es.logger.Warn().Err(err).Msgf("failed to revoke lease for %s", l.lockKey)
		}
	}
}

func (es *EtcdStore) Close() error {
	return es.client.Close()
}
