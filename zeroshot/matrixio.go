package zeroshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// WriteMatrix persists a matrix as little-endian float32 data behind a
// rows/cols header, via a temp file so readers never see a partial write.
func WriteMatrix(path string, m *Matrix) error {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.LittleEndian, uint32(m.Rows))
	_ = binary.Write(buf, binary.LittleEndian, uint32(m.Cols))
	if err := binary.Write(buf, binary.LittleEndian, m.Data); err != nil {
		return fmt.Errorf("encode matrix: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write matrix: %w", err)
	}
	return os.Rename(tmp, path)
}

// ReadMatrix loads a matrix written by WriteMatrix.
func ReadMatrix(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("matrix file too small: %s", path)
	}
	rows := int(binary.LittleEndian.Uint32(data[:4]))
	cols := int(binary.LittleEndian.Uint32(data[4:8]))
	body := data[8:]
	if len(body) != rows*cols*4 {
		return nil, fmt.Errorf("matrix length mismatch: %s", path)
	}
	m := &Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
	if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, m.Data); err != nil {
		return nil, err
	}
	return m, nil
}
