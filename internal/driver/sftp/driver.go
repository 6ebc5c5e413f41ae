package sftp

import (
	"context"
	"fmt"
	"io"
	pathpkg "path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Options configure the SFTP connection pool.
type Options struct {
	Host     string
	Port     string
	Username string
	Password string
	// Root is prepended to every blob path on the remote side.
	Root string
	// PoolSize is the number of persistent SFTP sessions, default 4.
	PoolSize int
}

// Driver stores blobs on a remote SFTP server through a fixed-size pool of
// sessions. Sessions are checked out per operation, so the driver is safe
// for concurrent use.
type Driver struct {
	clients chan *sftp.Client
	root    string
}

func NewDriver(opts Options) (*Driver, error) {
	size := opts.PoolSize
	if size <= 0 {
		size = 4
	}
	sshConfig := &ssh.ClientConfig{
		User: opts.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(opts.Password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}
	addr := opts.Host + ":" + opts.Port

	clients := make(chan *sftp.Client, size)
	for i := 0; i < size; i++ {
		conn, err := ssh.Dial("tcp", addr, sshConfig)
		if err != nil {
			drain(clients)
			return nil, fmt.Errorf("dial ssh %s: %w", addr, err)
		}
		client, err := sftp.NewClient(conn)
		if err != nil {
			conn.Close()
			drain(clients)
			return nil, fmt.Errorf("open sftp session: %w", err)
		}
		clients <- client
	}
	return &Driver{clients: clients, root: opts.Root}, nil
}

func drain(clients chan *sftp.Client) {
	for {
		select {
		case c := <-clients:
			_ = c.Close()
		default:
			return
		}
	}
}

func (d *Driver) Name() string { return "sftp" }

func (d *Driver) getClient() *sftp.Client {
	return <-d.clients
}

func (d *Driver) putClient(c *sftp.Client) {
	d.clients <- c
}

func (d *Driver) fullPath(p string) string {
	return pathpkg.Join(d.root, p)
}

func (d *Driver) GetContent(ctx context.Context, path string) ([]byte, error) {
	client := d.getClient()
	defer d.putClient(client)

	f, err := client.Open(d.fullPath(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (d *Driver) PutContent(ctx context.Context, path string, content []byte) error {
	client := d.getClient()
	defer d.putClient(client)

	fp := d.fullPath(path)
	if err := client.MkdirAll(pathpkg.Dir(fp)); err != nil {
		return err
	}
	f, err := client.Create(fp)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		// Leave no partial blob behind.
		_ = client.Remove(fp)
		return err
	}
	return f.Close()
}

func (d *Driver) List(ctx context.Context, path string) ([]string, error) {
	client := d.getClient()
	defer d.putClient(client)

	fis, err := client.ReadDir(d.fullPath(path))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, fi := range fis {
		out = append(out, fi.Name())
	}
	return out, nil
}

func (d *Driver) Delete(ctx context.Context, path string) error {
	client := d.getClient()
	defer d.putClient(client)
	return client.Remove(d.fullPath(path))
}

// Close releases all pooled sessions.
func (d *Driver) Close() error {
	var firstErr error
	for i := 0; i < cap(d.clients); i++ {
		c := <-d.clients
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
