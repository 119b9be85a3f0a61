//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Prateek-02/ChatterHub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(username, email, hashedPassword string) (User, error)
	GetUserByID(id string) (User, error)
	GetUserByUsername(username string) (User, error)
	GetUserByEmail(email string) (User, error)
	ListUsers() ([]User, error)
}

// User is the repository-level representation of an account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// Keys:
//
//	user:{id}         -> JSON user record
//	uname:{username}  -> id
//	email:{email}     -> id
//
// The two index keys guarantee username/email uniqueness inside the same
// transaction that writes the record.
func userKey(id string) []byte     { return []byte("user:" + id) }
func usernameKey(u string) []byte  { return []byte("uname:" + u) }
func emailKey(email string) []byte { return []byte("email:" + email) }

// CreateUser persists a new account with a server-assigned id.
// Returns ErrUserAlreadyExists when the username or email is taken.
func (u *UserRepository) CreateUser(username, email, hashedPassword string) (User, error) {
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(usernameKey(username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if _, err := txn.Get(emailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		if err := txn.Set(usernameKey(username), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(emailKey(email), []byte(user.ID))
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetUserByID(id string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetUserByUsername(username string) (User, error) {
	return u.getByIndex(usernameKey(username))
}

func (u *UserRepository) GetUserByEmail(email string) (User, error) {
	return u.getByIndex(emailKey(email))
}

func (u *UserRepository) getByIndex(indexKey []byte) (User, error) {
	var id string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u.GetUserByID(id)
}

// ListUsers scans every account record. The user base of a DM service is
// small enough for a full prefix scan; pagination can come later if needed.
func (u *UserRepository) ListUsers() ([]User, error) {
	var users []User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var user User
				if err := json.Unmarshal(val, &user); err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}
