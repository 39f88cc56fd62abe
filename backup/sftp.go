package backup

import (
	"context"
	"errors"
	"io"
	"path"

	"github.com/melbahja/goph"
	"github.com/pkg/sftp"
)

type SFTPConfig struct {
	User string
	Host string
	// path of ssh private key, must not be password-protected
	PrivateKeyPath string
	// directory on the server, created if doesn't exist
	Dir string
}

// SFTP keeps snapshots on a server reachable over ssh.
// Host key is verified against ~/.ssh/known_hosts.
type SFTP struct {
	ssh  *goph.Client
	sftp *sftp.Client
	host string
	Dir  string
}

func NewSFTP(config *SFTPConfig) (*SFTP, error) {
	if config == nil {
		return nil, errors.New("must provide config")
	}
	c := config
	if c.User == "" || c.Host == "" || c.PrivateKeyPath == "" {
		return nil, errors.New("must provide user, host and private key path in config")
	}
	auth, err := goph.Key(c.PrivateKeyPath, "")
	if err != nil {
		return nil, err
	}
	client, err := goph.New(c.User, c.Host, auth)
	if err != nil {
		return nil, err
	}
	sc, err := client.NewSftp()
	if err != nil {
		client.Close()
		return nil, err
	}
	dir := c.Dir
	if dir == "" {
		dir = "grades-backups"
	}
	if err = sc.MkdirAll(dir); err != nil {
		sc.Close()
		client.Close()
		return nil, err
	}
	return &SFTP{
		ssh:  client,
		sftp: sc,
		host: c.Host,
		Dir:  dir,
	}, nil
}

func (s *SFTP) Put(ctx context.Context, name string, d []byte) error {
	// upload under a temporary name so that a partial upload
	// never looks like a snapshot
	dst := path.Join(s.Dir, name)
	tmp := path.Join(s.Dir, "."+name+".tmp")
	f, err := s.sftp.Create(tmp)
	if err != nil {
		return err
	}
	_, err = f.Write(d)
	errClose := f.Close()
	if err == nil {
		err = errClose
	}
	if err == nil {
		err = s.sftp.PosixRename(tmp, dst)
	}
	if err != nil {
		_ = s.sftp.Remove(tmp)
	}
	return err
}

func (s *SFTP) Get(ctx context.Context, name string) ([]byte, error) {
	f, err := s.sftp.Open(path.Join(s.Dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *SFTP) List(ctx context.Context) ([]string, error) {
	infos, err := s.sftp.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var res []string
	for _, fi := range infos {
		name := fi.Name()
		if fi.Mode().IsRegular() && name[0] != '.' {
			res = append(res, name)
		}
	}
	return res, nil
}

func (s *SFTP) Close() error {
	err := s.sftp.Close()
	if err2 := s.ssh.Close(); err == nil {
		err = err2
	}
	return err
}

func (s *SFTP) String() string {
	return "sftp '" + s.host + ":" + s.Dir + "'"
}
