// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package table

import (
	"bytes"
	"fmt"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// parallelism passed to parquet-go for (de)serialising columns.
const parallelism = 1

// encode writes rows as a single SNAPPY-compressed parquet file. T must be
// a struct carrying `parquet` tags.
func encode[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	pw, err := writer.NewParquetWriter(writerfile.NewWriterFile(&buf), new(T), parallelism)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finish parquet file: %w", err)
	}
	return buf.Bytes(), nil
}

// decode reads every row of a parquet file into T values.
func decode[T any](data []byte) ([]T, error) {
	pf, err := buffer.NewBufferFile(data)
	if err != nil {
		return nil, err
	}
	pr, err := reader.NewParquetReader(pf, new(T), parallelism)
	if err != nil {
		return nil, fmt.Errorf("open parquet reader: %w", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	if n == 0 {
		return nil, nil
	}
	rows := make([]T, n)
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}
