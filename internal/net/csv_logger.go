package net

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// CSVLogger logs training progress to a CSV file.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	file   *os.File
	writer *csv.Writer
	start  time.Time
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

func (c *CSVLogger) OnTrainBegin(m Model) error {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0644)
	if err != nil {
		return errors.Wrapf(ErrIO, "csv logger: open %s: %v", c.Filename, err)
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	// Write header if not appending or if file is empty
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		if err := c.writer.Write([]string{"epoch", "loss", "learning_rate", "time_seconds"}); err != nil {
			return errors.Wrapf(ErrIO, "csv logger: write header: %v", err)
		}
		c.writer.Flush()
	}
	return nil
}

func (c *CSVLogger) OnEpochEnd(stats EpochStats, m Model) error {
	if c.writer == nil {
		return nil
	}

	elapsed := time.Since(c.start).Seconds()
	record := []string{
		strconv.Itoa(stats.Epoch),
		fmt.Sprintf("%.6f", stats.Loss),
		fmt.Sprintf("%g", stats.LearningRate),
		fmt.Sprintf("%.2f", elapsed),
	}

	if err := c.writer.Write(record); err != nil {
		return errors.Wrapf(ErrIO, "csv logger: write record: %v", err)
	}
	c.writer.Flush()
	return c.writer.Error()
}

func (c *CSVLogger) OnTrainEnd(m Model) error {
	if c.file == nil {
		return nil
	}
	c.writer.Flush()
	err := c.file.Close()
	c.file = nil
	c.writer = nil
	if err != nil {
		return errors.Wrapf(ErrIO, "csv logger: close %s: %v", c.Filename, err)
	}
	return nil
}
