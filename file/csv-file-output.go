package file

import (
	"bufio"
	"encoding/csv"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/relloyd/salespipe/logger"
)

// CSVFileOutput writes records to a single CSV file with an optional header row.
type CSVFileOutput struct {
	log          logger.Logger
	directory    string // set to empty string to use OS temp space with system generated directory.
	fileName     string
	headerRecord []string
	file         *os.File
	fWriter      *bufio.Writer
	csvWriter    *csv.Writer
	rowCount     int
	isOpen       bool
	isTempDir    bool
}

// NewCSVFileOutput creates a new CSV file struct. Supply a valid directory or empty string to use default ioutil.TempDir().
// The file is created lazily by the first call to MustWriteToCSV or Close.
func NewCSVFileOutput(log logger.Logger, outputDirectory string, fileName string) *CSVFileOutput {
	f := &CSVFileOutput{log: log, fileName: fileName}
	if outputDirectory == "" {
		var err error
		f.directory, err = ioutil.TempDir("", "csv-output-")
		if err != nil {
			log.Panic("Error creating temp directory for CSV files: ", err)
		}
		f.isTempDir = true
	} else {
		f.directory = outputDirectory
	}
	log.Debug("CSVFileOutput directory=", f.directory, "; file=", f.fileName)
	return f
}

// SetHeader will store the supplied record for output as the first line of the file.
func (f *CSVFileOutput) SetHeader(record []string) {
	f.headerRecord = record
}

// Name returns the full path of the output file.
func (f *CSVFileOutput) Name() string {
	return filepath.Join(f.directory, f.fileName)
}

// RowCount returns the number of data rows written, excluding the header.
func (f *CSVFileOutput) RowCount() int {
	return f.rowCount
}

// MustWriteToCSV writes record to the CSV file.
func (f *CSVFileOutput) MustWriteToCSV(record []string) {
	if !f.isOpen {
		f.open()
	}
	if err := f.csvWriter.Write(record); err != nil {
		f.log.Panic("Unable to write to CSV file ", f.Name(), ": ", err)
	}
	f.rowCount++
}

// Close flushes and closes the file, creating it with just the header if nothing was written.
// It returns the full path of the file.
func (f *CSVFileOutput) Close() string {
	if !f.isOpen {
		f.open()
	}
	f.csvWriter.Flush()
	if err := f.csvWriter.Error(); err != nil {
		f.log.Panic("Unable to flush CSV file ", f.Name(), ": ", err)
	}
	if err := f.fWriter.Flush(); err != nil {
		f.log.Panic("Unable to flush CSV file ", f.Name(), ": ", err)
	}
	if err := f.file.Close(); err != nil {
		f.log.Panic("unable to close OS file: ", f.Name(), "; ", err)
	}
	f.isOpen = false
	f.log.Debug("Closed CSV file '", f.Name(), "' with ", f.rowCount, " rows")
	return f.Name()
}

// Cleanup can be deferred by the caller to close the OS file if Close was not reached.
func (f *CSVFileOutput) Cleanup() {
	if f.isOpen {
		_ = f.file.Close()
		f.isOpen = false
	}
}

// Remove closes and deletes the output file, plus its directory when it was created in OS temp space.
// Errors are logged only so Remove can be deferred on failure paths.
func (f *CSVFileOutput) Remove() {
	f.Cleanup()
	target := f.Name()
	if f.isTempDir {
		target = f.directory
	}
	if err := os.RemoveAll(target); err != nil {
		f.log.Warn("Unable to remove CSV output '", target, "': ", err)
	}
}

func (f *CSVFileOutput) open() {
	f.log.Info("Creating new CSV file '", f.Name(), "'")
	if err := os.MkdirAll(f.directory, 0755); err != nil {
		f.log.Panic("Unable to create directory ", f.directory, ": ", err)
	}
	var err error
	f.file, err = os.Create(f.Name())
	if err != nil {
		f.log.Panic("Unable to create OS file with name: ", f.Name(), ": ", err)
	}
	f.fWriter = bufio.NewWriter(f.file)
	f.csvWriter = csv.NewWriter(f.fWriter)
	f.isOpen = true
	if f.headerRecord != nil {
		if err = f.csvWriter.Write(f.headerRecord); err != nil {
			f.log.Panic("Unable to write header to CSV file: ", err)
		}
	}
}
