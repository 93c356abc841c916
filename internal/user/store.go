package user

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/AutoLedger/AutoLedger/internal/xmldoc"
)

// 角色集合与历史实现一致：Manager 管库存，Salesperson 管销售。
const (
	RoleManager     = "Manager"
	RoleSalesperson = "Salesperson"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User 用户文档（users.xml）中的账号记录。
type User struct {
	ID           string `xml:"id"`
	Username     string `xml:"username"`
	PasswordHash string `xml:"passwordHash"` // bcrypt（自带盐）
	Role         string `xml:"role"`
}

type document struct {
	XMLName xml.Name `xml:"users"`
	Users   []User   `xml:"user"`
}

// Store 用户文档存储。账号与库存/销售文档无关，用自己的锁即可。
type Store struct {
	mu   sync.Mutex
	path string
	mode xmldoc.DurabilityMode
}

// NewStore 打开用户文档，并保证至少存在一个 Manager 账号
// （首次启动用 bootstrapPassword 创建 admin）。
func NewStore(path string, mode xmldoc.DurabilityMode, bootstrapPassword string) (*Store, error) {
	s := &Store{path: path, mode: mode}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Users {
		if doc.Users[i].Role == RoleManager {
			return s, nil
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(bootstrapPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash bootstrap password: %w", err)
	}
	doc.Users = append(doc.Users, User{
		ID:           uuid.NewString(),
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         RoleManager,
	})
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() (*document, error) {
	doc := &document{}
	err := xmldoc.Load(s.path, doc)
	if os.IsNotExist(err) {
		return &document{}, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) save(doc *document) error {
	return xmldoc.Save(s.path, doc, s.mode)
}

// Authenticate 按用户名（大小写不敏感）查找账号并校验密码。
func (s *Store) Authenticate(username, password string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Users {
		u := doc.Users[i]
		if !strings.EqualFold(u.Username, username) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return nil, ErrInvalidCredentials
		}
		return &u, nil
	}
	return nil, ErrInvalidCredentials
}

// RegisterSalesperson 注册销售账号，用户名重复（大小写不敏感）拒绝。
func (s *Store) RegisterSalesperson(username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Users {
		if strings.EqualFold(doc.Users[i].Username, username) {
			return nil, ErrUserExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         RoleSalesperson,
	}
	doc.Users = append(doc.Users, u)
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return &u, nil
}
