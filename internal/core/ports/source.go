package ports

// Record is one decoded sequence record.
type Record struct {
	ID  string
	Seq []byte
}

// RecordSource yields records until it returns io.EOF. Any other error is an
// upstream I/O or parse failure and ends the stream.
type RecordSource interface {
	Next() (Record, error)
	Close() error
}
