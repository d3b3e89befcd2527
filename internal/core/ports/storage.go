package ports

import "encoding"

type Storage interface {
	Save(name string, sketch encoding.BinaryMarshaler) error
	Load(name string, into encoding.BinaryUnmarshaler) error
	List() ([]string, error)
	Remove(name string) error
}
