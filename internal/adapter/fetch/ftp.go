package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
)

const (
	defaultFTPPort = "21"
	anonymousUser  = "anonymous"
)

// FTPSource locates a file on an FTP server.
type FTPSource struct {
	Host string // host or host:port
	Dir  string
	File string
}

func (s FTPSource) String() string {
	return "ftp://" + s.addr() + path.Join("/", s.Dir, s.File)
}

func (s FTPSource) addr() string {
	if _, _, err := net.SplitHostPort(s.Host); err == nil {
		return s.Host
	}
	return net.JoinHostPort(s.Host, defaultFTPPort)
}

// ftpConn is the part of an FTP session the fetcher needs.
type ftpConn interface {
	Login(user, password string) error
	ChangeDir(dir string) error
	Retrieve(name string) (io.ReadCloser, error)
	Quit() error
}

type ftpDialer func(ctx context.Context, addr string) (ftpConn, error)

// serverConn adapts *ftp.ServerConn to ftpConn.
type serverConn struct {
	*ftp.ServerConn
}

func (c serverConn) Retrieve(name string) (io.ReadCloser, error) {
	resp, err := c.Retr(name)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func dialJLaffaye(timeout time.Duration) ftpDialer {
	return func(ctx context.Context, addr string) (ftpConn, error) {
		c, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(timeout))
		if err != nil {
			return nil, err
		}
		return serverConn{c}, nil
	}
}

// ftpBody closes the FTP session together with the transfer.
type ftpBody struct {
	io.ReadCloser
	conn ftpConn
}

func (b ftpBody) Close() error {
	err := b.ReadCloser.Close()
	if qerr := b.conn.Quit(); err == nil {
		err = qerr
	}
	return err
}

func (f *Fetcher) openFTP(ctx context.Context, src FTPSource) (io.ReadCloser, error) {
	conn, err := f.dialFTP(ctx, src.addr())
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	if err := conn.Login(anonymousUser, anonymousUser); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("login: %w", err)
	}

	if src.Dir != "" {
		if err := conn.ChangeDir(src.Dir); err != nil {
			_ = conn.Quit()
			return nil, fmt.Errorf("cwd %s: %w", src.Dir, err)
		}
	}

	body, err := conn.Retrieve(src.File)
	if err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("retr %s: %w", src.File, err)
	}

	return ftpBody{ReadCloser: body, conn: conn}, nil
}
