package components

// Default field names are used by components to know the names of input and output fields.
var Defaults = struct {
	ChanField4CSVFileName  string // full path of a CSV file written by CsvFileWriter.
	ChanField4RowCount     string // number of data rows in the CSV file.
	ChanField4ObjectURI    string // location of an object in blob storage.
	ChanField4JobID        string // id of a warehouse job.
	ChanField4RowsAffected string // rows loaded or produced by a warehouse job.
	ChanField4QueryJob     string // a jobs.QueryJob for QueryExec.
}{
	ChanField4CSVFileName:  "#CSVFileName",
	ChanField4RowCount:     "#RowCount",
	ChanField4ObjectURI:    "#ObjectURI",
	ChanField4JobID:        "#JobID",
	ChanField4RowsAffected: "#RowsAffected",
	ChanField4QueryJob:     "#QueryJob",
}
