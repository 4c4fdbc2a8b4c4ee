package wire

import (
	"bufio"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"pygit/internal/obslog"
	"pygit/pkg/objects"
	"pygit/pkg/repo"
)

// RepoResolver maps a repo name from a request line to an opened
// repository. The server never creates repositories; when resolution
// fails, the resolver's error is sent back to the client as an ERR line.
type RepoResolver func(name string) (*repo.Repo, error)

// Server accepts pygit wire connections. Per the single-writer
// concurrency model, it serves one connection fully before accepting
// the next: there is no per-connection goroutine.
type Server struct {
	Addr    string
	Resolve RepoResolver
	Log     *obslog.Logger
}

// NewServer constructs a Server. If log is nil, a quiet logger is used.
func NewServer(addr string, resolve RepoResolver, log *obslog.Logger) *Server {
	if log == nil {
		log = obslog.Quiet()
	}
	return &Server{Addr: addr, Resolve: resolve, Log: log}
}

// ListenAndServe binds Addr and serves requests until the listener
// fails or is closed.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("wire: listen %s: %w", s.Addr, err)
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("wire: accept: %w", err)
		}
		if err := s.handleConn(conn); err != nil {
			s.Log.Operation("serve").Warn("connection failed", zap.Error(err))
		}
		conn.Close()
	}
}

func (s *Server) handleConn(conn net.Conn) error {
	if s.Log == nil {
		s.Log = obslog.Quiet()
	}
	r := bufio.NewReader(conn)
	line, err := readLine(r)
	if err != nil {
		return fmt.Errorf("wire: read request: %w", err)
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return writeLine(conn, "ERR %s", "malformed request")
	}
	cmd, repoName := fields[0], fields[1]

	rp, err := s.Resolve(repoName)
	if err != nil {
		return writeLine(conn, "ERR %s", err.Error())
	}

	logger := s.Log.Operation(strings.ToLower(cmd))
	switch cmd {
	case "HAVE":
		logger.Info("have", zap.String("repo", repoName))
		return s.serveHave(conn, rp)
	case "PUSH":
		if len(fields) != 3 {
			return writeLine(conn, "ERR %s", "PUSH requires a branch")
		}
		logger.Info("push", zap.String("repo", repoName), zap.String("branch", fields[2]))
		return s.servePush(conn, r, rp, fields[2])
	case "PULL":
		if len(fields) != 3 {
			return writeLine(conn, "ERR %s", "PULL requires a branch")
		}
		logger.Info("pull", zap.String("repo", repoName), zap.String("branch", fields[2]))
		return s.servePull(conn, r, rp, fields[2])
	case "CLONE":
		logger.Info("clone", zap.String("repo", repoName))
		return s.serveClone(conn, rp)
	default:
		return writeLine(conn, "ERR %s", "unknown command "+cmd)
	}
}

func allRefTips(rp *repo.Repo) (map[string]objects.Hash, error) {
	branches, err := rp.ListBranches()
	if err != nil {
		return nil, err
	}
	tips := make(map[string]objects.Hash, len(branches))
	for _, b := range branches {
		h, err := rp.ResolveRef("refs/heads/" + b)
		if err != nil {
			continue
		}
		tips[b] = h
	}
	return tips, nil
}

func (s *Server) serveHave(conn net.Conn, rp *repo.Repo) error {
	tips, err := allRefTips(rp)
	if err != nil {
		return writeLine(conn, "ERR %s", err.Error())
	}
	roots := make([]objects.Hash, 0, len(tips))
	for _, h := range tips {
		roots = append(roots, h)
	}
	set, err := ReachableSet(rp.Store, roots)
	if err != nil {
		return writeLine(conn, "ERR %s", err.Error())
	}

	ids := make([]string, 0, len(set))
	for h := range set {
		ids = append(ids, h.String())
	}
	sort.Strings(ids)

	if err := writeLine(conn, "%d", len(ids)); err != nil {
		return err
	}
	for _, id := range ids {
		if err := writeLine(conn, "%s", id); err != nil {
			return err
		}
	}
	return writeLine(conn, "END")
}

func (s *Server) servePush(conn net.Conn, r *bufio.Reader, rp *repo.Repo, branch string) error {
	if err := writeLine(conn, "READY"); err != nil {
		return err
	}

	for {
		id, typ, payload, err := readObjectFrame(r)
		if err != nil {
			return writeLine(conn, "ERR %s", err.Error())
		}
		if typ == "" {
			break
		}
		computed := objects.HashObject(typ, payload)
		if computed != id {
			return writeLine(conn, "ERR %s", (&CorruptObjectError{ID: id, Actual: computed}).Error())
		}
		if _, err := rp.Store.Put(typ, payload); err != nil {
			return writeLine(conn, "ERR %s", err.Error())
		}
	}

	updateLine, err := readLine(r)
	if err != nil {
		return fmt.Errorf("wire: read update: %w", err)
	}
	fields := strings.Fields(updateLine)
	if len(fields) != 3 || fields[0] != "UPDATE" {
		return writeLine(conn, "ERR %s", "malformed UPDATE")
	}

	var oldHash objects.Hash
	if fields[1] != "NIL" {
		oldHash, err = objects.ParseHash(fields[1])
		if err != nil {
			return writeLine(conn, "ERR %s", err.Error())
		}
	}
	newHash, err := objects.ParseHash(fields[2])
	if err != nil {
		return writeLine(conn, "ERR %s", err.Error())
	}

	refName := "refs/heads/" + branch
	currentTip, err := rp.ResolveRef(refName)
	if err != nil {
		currentTip = objects.ZeroHash
	}
	if currentTip != oldHash {
		return writeLine(conn, "ERR %s", (&NonFastForwardError{Branch: branch, Local: newHash, Remote: currentTip}).Error())
	}
	if ok, err := IsAncestor(rp.Store, newHash, currentTip); err != nil {
		return writeLine(conn, "ERR %s", err.Error())
	} else if !ok {
		return writeLine(conn, "ERR %s", (&NonFastForwardError{Branch: branch, Local: newHash, Remote: currentTip}).Error())
	}

	if err := rp.UpdateRefCAS(refName, newHash, oldHash); err != nil {
		return writeLine(conn, "ERR %s", err.Error())
	}
	return writeLine(conn, "OK")
}

func (s *Server) servePull(conn net.Conn, r *bufio.Reader, rp *repo.Repo, branch string) error {
	tip, err := rp.ResolveRef("refs/heads/" + branch)
	if err != nil {
		return writeLine(conn, "ERR %s", err.Error())
	}
	if err := writeLine(conn, "TIP %s", tip); err != nil {
		return err
	}

	haveLine, err := readLine(r)
	if err != nil {
		return fmt.Errorf("wire: read have count: %w", err)
	}
	fields := strings.Fields(haveLine)
	if len(fields) != 2 || fields[0] != "HAVE" {
		return fmt.Errorf("%w: malformed HAVE line %q", ErrProtocol, haveLine)
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("%w: malformed HAVE count %q", ErrProtocol, fields[1])
	}
	haves := make([]objects.Hash, 0, count)
	for i := 0; i < count; i++ {
		line, err := readLine(r)
		if err != nil {
			return fmt.Errorf("wire: read have hash: %w", err)
		}
		h, err := objects.ParseHash(line)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrProtocol, err)
		}
		haves = append(haves, h)
	}

	records, err := CollectObjectsForPush(rp.Store, []objects.Hash{tip}, haves)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := writeObjectFrame(conn, rec.ID, rec.Type, rec.Payload); err != nil {
			return err
		}
	}
	return writeLine(conn, "DONE")
}

func (s *Server) serveClone(conn net.Conn, rp *repo.Repo) error {
	tips, err := allRefTips(rp)
	if err != nil {
		return writeLine(conn, "ERR %s", err.Error())
	}

	names := make([]string, 0, len(tips))
	for name := range tips {
		names = append(names, name)
	}
	sort.Strings(names)

	roots := make([]objects.Hash, 0, len(tips))
	for _, name := range names {
		if err := writeLine(conn, "REF %s %s", name, tips[name]); err != nil {
			return err
		}
		roots = append(roots, tips[name])
	}
	if err := writeLine(conn, "REFS-END"); err != nil {
		return err
	}

	records, err := CollectObjectsForPush(rp.Store, roots, nil)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := writeObjectFrame(conn, rec.ID, rec.Type, rec.Payload); err != nil {
			return err
		}
	}
	if err := writeLine(conn, "DONE"); err != nil {
		return err
	}

	defaultBranch, err := rp.CurrentBranch()
	if err != nil || defaultBranch == "" {
		defaultBranch = "master"
	}
	return writeLine(conn, "HEAD %s", defaultBranch)
}
