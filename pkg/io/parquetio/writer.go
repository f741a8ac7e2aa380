package parquetio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	pw "github.com/xitongsys/parquet-go/writer"
	"golang.org/x/sync/errgroup"

	"github.com/wdm0006/sparkify/pkg/frame"
	"github.com/wdm0006/sparkify/pkg/logger"
	"github.com/wdm0006/sparkify/pkg/storage"
)

// SuccessMarker is written last; a table directory without it was never
// committed.
const SuccessMarker = "_SUCCESS"

type WriterOptions struct {
	// PartitionBy lists the columns encoded as key=value directories. They
	// are not stored inside the files.
	PartitionBy []string
	// StagingDir holds files before upload; the system temp dir when empty.
	StagingDir string
	// Parallelism bounds the part files staged or uploaded at once and the
	// marshalling goroutines of each parquet writer.
	Parallelism int64
	Logger      logger.Logger
}

// Result summarises a table write.
type Result struct {
	Rows       int
	Files      int
	Partitions int
}

func parquetSchemaJSON(s frame.Schema) string {
	// Build a minimal JSON schema for parquet-go JSONWriter
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=spark_schema, repetitiontype=REQUIRED"}
	for _, cs := range s.Columns {
		tag := "name=" + cs.Name + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case frame.KindFloat:
			tag += "DOUBLE"
		case frame.KindInt:
			tag += "INT64"
		case frame.KindBool:
			tag += "BOOLEAN"
		case frame.KindTime:
			tag += "TIMESTAMP_MILLIS"
		default:
			tag += "UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, _ := json.Marshal(sc)
	return string(b)
}

type partition struct {
	dir  string
	rows []int
}

// splitPartitions groups row indexes by their partition directory, sorted by
// directory. Without partition columns there is one group holding every row.
func splitPartitions(f *frame.Frame, by []frame.Column, names []string) []partition {
	if len(by) == 0 {
		rows := make([]int, f.Rows())
		for i := range rows {
			rows[i] = i
		}
		return []partition{{rows: rows}}
	}
	groups := map[string]*partition{}
	segs := make([]string, len(by))
	for r := 0; r < f.Rows(); r++ {
		for i, c := range by {
			segs[i] = escapePathName(names[i]) + "=" + partitionValue(c, r)
		}
		dir := strings.Join(segs, "/")
		g, ok := groups[dir]
		if !ok {
			g = &partition{dir: dir}
			groups[dir] = g
		}
		g.rows = append(g.rows, r)
	}
	out := make([]partition, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].dir < out[j].dir })
	return out
}

// WriteTable replaces everything under loc with the rows of f, laid out as
// a partitioned parquet dataset. Files are staged locally first; the old
// contents are deleted only once every file has been produced.
func WriteTable(ctx context.Context, store storage.Store, loc storage.Location, f *frame.Frame, opt WriterOptions) (Result, error) {
	log := opt.Logger
	if log == nil {
		log = logger.NewNop()
	}
	np := opt.Parallelism
	if np <= 0 {
		np = 4
	}

	by := make([]frame.Column, len(opt.PartitionBy))
	isPart := map[string]bool{}
	for i, name := range opt.PartitionBy {
		c, err := f.MustColumn(name)
		if err != nil {
			return Result{}, fmt.Errorf("partition column: %w", err)
		}
		by[i] = c
		isPart[name] = true
	}
	var data frame.Schema
	for _, cs := range f.Schema().Columns {
		if !isPart[cs.Name] {
			data.Columns = append(data.Columns, cs)
		}
	}
	if len(data.Columns) == 0 {
		return Result{}, fmt.Errorf("every column of %s is a partition column", loc)
	}

	staging, err := os.MkdirTemp(opt.StagingDir, "sparkify-stage-*")
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = os.RemoveAll(staging) }()

	parts := splitPartitions(f, by, opt.PartitionBy)
	jobID := uuid.New().String()
	type staged struct{ local, rel string }
	files := make([]staged, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(np))
	for i, p := range parts {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			name := fmt.Sprintf("part-%05d-%s.c000.snappy.parquet", i, jobID)
			lp := filepath.Join(staging, fmt.Sprintf("%05d.parquet", i))
			if err := writeFile(lp, f, data, p.rows, np); err != nil {
				return fmt.Errorf("write %s: %w", path.Join(p.dir, name), err)
			}
			files[i] = staged{local: lp, rel: path.Join(p.dir, name)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if err := store.DeletePrefix(ctx, loc.DirPrefix()); err != nil {
		return Result{}, fmt.Errorf("clear %s: %w", loc, err)
	}
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(int(np))
	for _, sf := range files {
		sf := sf
		g.Go(func() error { return upload(gctx, store, sf.local, loc.Key(sf.rel)) })
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	// _SUCCESS only after every part is in place
	if err := store.Put(ctx, loc.Key(SuccessMarker), strings.NewReader(""), 0); err != nil {
		return Result{}, fmt.Errorf("commit %s: %w", loc, err)
	}

	res := Result{Rows: f.Rows(), Files: len(files)}
	if len(by) > 0 {
		res.Partitions = len(files)
	}
	log.Debug("Wrote table",
		logger.String("location", loc.String()),
		logger.Int("rows", res.Rows),
		logger.Int("files", res.Files),
	)
	return res, nil
}

// writeFile writes the given rows of f, restricted to the data columns, to a
// local parquet file.
func writeFile(localPath string, f *frame.Frame, data frame.Schema, rows []int, np int64) (err error) {
	fw, err := local.NewLocalFileWriter(localPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fw.Close(); err == nil {
			err = cerr
		}
	}()
	writer, err := pw.NewJSONWriter(parquetSchemaJSON(data), fw, np)
	if err != nil {
		return fmt.Errorf("parquet writer init: %w", err)
	}
	writer.CompressionType = parquet.CompressionCodec_SNAPPY

	cols := make([]frame.Column, len(data.Columns))
	for i, cs := range data.Columns {
		cols[i], _ = f.ColumnByName(cs.Name)
	}
	for _, r := range rows {
		rec := make(map[string]any, len(cols))
		for _, col := range cols {
			switch c := col.(type) {
			case *frame.TimeColumn:
				if v, ok := c.Get(r); ok {
					rec[c.Name()] = v.UnixMilli()
				}
			default:
				if v := col.Value(r); v != nil {
					rec[col.Name()] = v
				}
			}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := writer.Write(string(b)); err != nil {
			return fmt.Errorf("parquet write row: %w", err)
		}
	}
	return writer.WriteStop()
}

func upload(ctx context.Context, store storage.Store, localPath, key string) error {
	fh, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer func() { _ = fh.Close() }()
	st, err := fh.Stat()
	if err != nil {
		return err
	}
	if err := store.Put(ctx, key, fh, st.Size()); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
