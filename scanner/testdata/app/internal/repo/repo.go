package repo

import "io"

type Repository interface {
	Find(id int) (string, error)
}

type Entity struct{ ID int }

//autobind:scope singleton
type UserRepository struct {
	Entity
}

func (*UserRepository) Find(int) (string, error) { return "", nil }
func (*UserRepository) Close() error             { return nil }

//autobind:ignore
type Legacy struct{}

var _ io.Closer = (*UserRepository)(nil)
