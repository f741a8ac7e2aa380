// Package session is the compute session of a job run. It owns the
// credentials, resolves locations to stores and moves frames in and out of
// them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wdm0006/sparkify/pkg/credentials"
	"github.com/wdm0006/sparkify/pkg/frame"
	"github.com/wdm0006/sparkify/pkg/io/jsonio"
	"github.com/wdm0006/sparkify/pkg/io/parquetio"
	"github.com/wdm0006/sparkify/pkg/logger"
	"github.com/wdm0006/sparkify/pkg/storage"
	"github.com/wdm0006/sparkify/pkg/storage/local"
	"github.com/wdm0006/sparkify/pkg/storage/minio"
	"github.com/wdm0006/sparkify/pkg/storage/s3"
	"github.com/wdm0006/sparkify/pkg/tables"
)

// ErrNoInput is returned when a glob matches no object.
var ErrNoInput = errors.New("no input files matched")

const (
	DriverS3    = "s3"
	DriverMinio = "minio"
)

// StorageOptions selects and configures the client used for bucket
// locations.
type StorageOptions struct {
	Driver   string
	Region   string
	Endpoint string
	UseSSL   bool
}

type Options struct {
	Credentials credentials.AWS
	Storage     StorageOptions
	Malformed   jsonio.Policy
	StagingDir  string
	Logger      logger.Logger
	stores      map[string]storage.Store
}

type Option func(*Options)

func WithCredentials(c credentials.AWS) Option {
	return func(o *Options) { o.Credentials = c }
}

func WithStorage(s StorageOptions) Option {
	return func(o *Options) { o.Storage = s }
}

func WithMalformed(p jsonio.Policy) Option {
	return func(o *Options) { o.Malformed = p }
}

func WithStagingDir(dir string) Option {
	return func(o *Options) { o.StagingDir = dir }
}

func WithLogger(l logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithStore registers st for every location in bucket, bypassing client
// construction. Bucket is ignored for file locations.
func WithStore(scheme storage.Scheme, bucket string, st storage.Store) Option {
	return func(o *Options) {
		if o.stores == nil {
			o.stores = map[string]storage.Store{}
		}
		o.stores[storeKey(scheme, bucket)] = st
	}
}

type Session struct {
	opts Options
	log  logger.Logger

	mu     sync.Mutex
	stores map[string]storage.Store
}

// New builds a session. No storage is contacted; missing or invalid
// credentials surface on the first read or write.
func New(ctx context.Context, opts ...Option) (*Session, error) {
	o := Options{Malformed: jsonio.PolicyFail, Storage: StorageOptions{Driver: DriverS3}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	if _, err := jsonio.ParsePolicy(string(o.Malformed)); err != nil {
		return nil, err
	}
	switch o.Storage.Driver {
	case "", DriverS3, DriverMinio:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", o.Storage.Driver)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &Session{opts: o, log: o.Logger.Named("session"), stores: map[string]storage.Store{}}
	for k, st := range o.stores {
		s.stores[k] = st
	}
	region := o.Storage.Region
	if o.Credentials.Region != "" {
		region = o.Credentials.Region
	}
	s.opts.Storage.Region = region
	s.log.Info("Session created",
		logger.String("driver", o.Storage.Driver),
		logger.String("region", region),
		logger.String("credentials", o.Credentials.String()),
	)
	return s, nil
}

var (
	defaultOnce    sync.Once
	defaultSession *Session
	defaultErr     error
)

// GetOrCreate returns the process-wide session, building it on the first
// call. Options passed to later calls are ignored.
func GetOrCreate(ctx context.Context, opts ...Option) (*Session, error) {
	defaultOnce.Do(func() {
		defaultSession, defaultErr = New(ctx, opts...)
	})
	return defaultSession, defaultErr
}

func (s *Session) Logger() logger.Logger { return s.opts.Logger }

func storeKey(scheme storage.Scheme, bucket string) string {
	if scheme == storage.SchemeFile {
		return string(scheme)
	}
	return string(scheme) + "://" + bucket
}

// Store returns the store holding loc, creating the client on first use.
func (s *Session) Store(ctx context.Context, loc storage.Location) (storage.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey(loc.Scheme, loc.Bucket)
	if st, ok := s.stores[key]; ok {
		return st, nil
	}
	var (
		st  storage.Store
		err error
	)
	switch loc.Scheme {
	case storage.SchemeFile:
		st = local.New()
	case storage.SchemeS3:
		st, err = s.bucketStore(ctx, loc.Bucket)
	default:
		err = fmt.Errorf("unsupported scheme %q", loc.Scheme)
	}
	if err != nil {
		return nil, err
	}
	s.stores[key] = st
	return st, nil
}

func (s *Session) bucketStore(ctx context.Context, bucket string) (storage.Store, error) {
	c := s.opts.Credentials
	so := s.opts.Storage
	if so.Driver == DriverMinio {
		return minio.New(bucket, minio.Options{
			Endpoint:        so.Endpoint,
			UseSSL:          so.UseSSL,
			Region:          so.Region,
			AccessKeyID:     c.AccessKeyID,
			SecretAccessKey: c.SecretAccessKey,
		}, s.opts.Logger.Named("minio"))
	}
	return s3.New(ctx, bucket, s3.Options{
		Region:          so.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
	}, s.opts.Logger.Named("s3"))
}

func (s *Session) resolve(ctx context.Context, uri string) (storage.Store, storage.Location, error) {
	loc, err := storage.Parse(uri)
	if err != nil {
		return nil, storage.Location{}, err
	}
	st, err := s.Store(ctx, loc)
	return st, loc, err
}

// ReadJSON loads every object under uri matching pattern against schema,
// one file at a time. Each file's frame is passed through p (which may be
// nil) before the results are concatenated.
func (s *Session) ReadJSON(ctx context.Context, uri, pattern string, schema frame.Schema, p *frame.Pipeline) (*frame.Frame, error) {
	st, loc, err := s.resolve(ctx, uri)
	if err != nil {
		return nil, err
	}
	keys, err := storage.Glob(ctx, st, loc, pattern)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", loc.Key(pattern), err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, loc.Key(pattern))
	}
	if p == nil {
		p = frame.NewPipeline()
	}
	start := time.Now()
	src := jsonio.NewSource(ctx, st, keys, jsonio.ReaderOptions{Schema: schema, Malformed: s.opts.Malformed}, s.log)
	sink := frame.NewCollector(schema)
	if err := frame.RunStream(ctx, p, src, sink); err != nil {
		return nil, err
	}
	out := sink.Frame()
	s.log.Info("Read JSON",
		logger.String("location", loc.Key(pattern)),
		logger.Int("files", len(keys)),
		logger.Int("rows", out.Rows()),
		logger.Int("skipped", src.Skipped()),
		logger.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// ReadParquet loads the committed table t under the output location uri.
func (s *Session) ReadParquet(ctx context.Context, uri string, t tables.Table) (*frame.Frame, error) {
	st, loc, err := s.resolve(ctx, uri)
	if err != nil {
		return nil, err
	}
	loc = loc.Child(t.Dir())
	f, err := parquetio.ReadTable(ctx, st, loc, t.Schema)
	if err != nil {
		return nil, fmt.Errorf("read %s table: %w", t.Name, err)
	}
	s.log.Info("Read table",
		logger.String("table", t.Name),
		logger.String("location", loc.String()),
		logger.Int("rows", f.Rows()),
	)
	return f, nil
}

// WriteParquet replaces table t under the output location uri with f.
func (s *Session) WriteParquet(ctx context.Context, f *frame.Frame, uri string, t tables.Table) (parquetio.Result, error) {
	st, loc, err := s.resolve(ctx, uri)
	if err != nil {
		return parquetio.Result{}, err
	}
	loc = loc.Child(t.Dir())
	start := time.Now()
	res, err := parquetio.WriteTable(ctx, st, loc, f, parquetio.WriterOptions{
		PartitionBy: t.PartitionBy,
		StagingDir:  s.opts.StagingDir,
		Logger:      s.log,
	})
	if err != nil {
		return res, fmt.Errorf("write %s table: %w", t.Name, err)
	}
	s.log.Info("Wrote table",
		logger.String("table", t.Name),
		logger.String("location", loc.String()),
		logger.Int("rows", res.Rows),
		logger.Int("files", res.Files),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
