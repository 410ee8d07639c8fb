package shared

import (
	"fmt"
	"slices"
	"sync"

	"github.com/kbukum/httpconnector/errors"
	"github.com/kbukum/httpconnector/logger"
	"github.com/kbukum/httpconnector/observability"
)

// Registry maps keys to shared resources. Operations on different keys
// never share a lock.
type Registry[R Resource] struct {
	name         string
	slots        sync.Map // string -> *slot[R]
	log          *logger.Logger
	metrics      *observability.ConnectorMetrics
	constructErr ErrorFunc
	startErr     ErrorFunc
}

// slot guards construction and removal of one key's registration.
type slot[R Resource] struct {
	mu   sync.Mutex
	reg  *Registration[R]
	dead bool
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	log          *logger.Logger
	metrics      *observability.ConnectorMetrics
	constructErr ErrorFunc
	startErr     ErrorFunc
}

// ErrorFunc wraps a construction or start failure of the resource at key.
type ErrorFunc func(key string, cause error) *errors.AppError

// WithLogger overrides the registry logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics overrides the metric instruments. Nil disables metrics.
func WithMetrics(m *observability.ConnectorMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithErrors replaces the errors returned for construction and start
// failures. The defaults describe HTTP clients.
func WithErrors(construct, start ErrorFunc) Option {
	return func(o *options) { o.constructErr, o.startErr = construct, start }
}

// NewRegistry creates an empty registry. name labels its log lines and is
// the kind attribute of its metrics.
func NewRegistry[R Resource](name string, opts ...Option) *Registry[R] {
	o := options{
		metrics:      observability.DefaultMetrics(),
		constructErr: errors.ClientConstruction,
		startErr:     errors.ClientStart,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("shared").WithFields(logger.Fields("registry", name))
	}
	return &Registry[R]{
		name:         name,
		log:          o.log,
		metrics:      o.metrics,
		constructErr: o.constructErr,
		startErr:     o.startErr,
	}
}

// LookupOrCreate returns a handle over key's registration, creating it with
// create if none exists. create runs at most once per live registration,
// on the caller that wins the race. A failed create leaves no entry behind.
func (r *Registry[R]) LookupOrCreate(key string, create func() (R, error)) (*Handle[R], error) {
	for {
		v, _ := r.slots.LoadOrStore(key, &slot[R]{})
		s := v.(*slot[R])

		s.mu.Lock()
		if s.dead {
			s.mu.Unlock()
			continue
		}
		if s.reg == nil {
			res, err := construct(create)
			if err != nil {
				s.dead = true
				r.slots.CompareAndDelete(key, s)
				s.mu.Unlock()
				r.log.Warn("shared resource construction failed", logger.Fields(
					logger.FieldClientKey, key,
					logger.FieldError, err.Error(),
				))
				return nil, r.constructErr(key, err)
			}
			s.reg = &Registration[R]{key: key, resource: res, owner: r, slot: s}
			r.log.Debug("shared resource created", logger.Fields(logger.FieldClientKey, key))
		}
		reg := s.reg
		reg.acquire()
		s.mu.Unlock()
		return &Handle[R]{reg: reg}, nil
	}
}

// Lookup returns key's registration without creating one.
func (r *Registry[R]) Lookup(key string) (*Registration[R], bool) {
	v, ok := r.slots.Load(key)
	if !ok {
		return nil, false
	}
	s := v.(*slot[R])
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead || s.reg == nil {
		return nil, false
	}
	return s.reg, true
}

// Keys returns the keys with a live registration, sorted.
func (r *Registry[R]) Keys() []string {
	var keys []string
	r.slots.Range(func(k, v any) bool {
		s := v.(*slot[R])
		s.mu.Lock()
		live := !s.dead && s.reg != nil
		s.mu.Unlock()
		if live {
			keys = append(keys, k.(string))
		}
		return true
	})
	slices.Sort(keys)
	return keys
}

// evict removes reg's entry if it is still unused once the slot lock is held.
func (r *Registry[R]) evict(reg *Registration[R]) {
	s := reg.slot
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead || s.reg != reg || !reg.unused() {
		return
	}
	s.dead = true
	r.slots.CompareAndDelete(reg.key, s)
	r.log.Debug("shared resource evicted", logger.Fields(logger.FieldClientKey, reg.key))
}

func construct[R Resource](create func() (R, error)) (res R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return create()
}

// Key scopes a configuration name to the artifact that declares it.
func Key(artifactID, name string) string {
	return artifactID + "/" + name
}
