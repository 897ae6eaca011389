package deadletter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileSink appends records to a file as JSON lines.
type FileSink struct {
	mu       sync.Mutex
	filePath string
}

func NewFileSink(filePath string) *FileSink {
	return &FileSink{filePath: filePath}
}

func (f *FileSink) Send(_ context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	var buf []byte
	for _, record := range records {
		bytes, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		buf = append(buf, bytes...)
		buf = append(buf, '\n')
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// If the file doesn't exist, create it
	file, err := os.OpenFile(f.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	if _, err = file.Write(buf); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return file.Close()
}

func (f *FileSink) Close() error {
	return nil
}

// ReadFile loads every record from a file written by [FileSink]. A missing file has no records.
func ReadFile(filePath string) ([]Record, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		var record Record
		if err = json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}

		records = append(records, record)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return records, nil
}
