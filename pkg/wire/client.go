package wire

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"pygit/pkg/objects"
	"pygit/pkg/repo"
)

// DefaultTimeout bounds every client network round trip, per the
// concurrency model's default 30s client request timeout.
const DefaultTimeout = 30 * time.Second

// Client talks to one pygit wire server.
type Client struct {
	Addr    string
	RepoName string
	Timeout time.Duration
}

// NewClient returns a Client for host:port and repo name, e.g. as
// parsed out of a pygit://host:port/repo URL.
func NewClient(addr, repoName string) *Client {
	return &Client{Addr: addr, RepoName: repoName, Timeout: DefaultTimeout}
}

func (c *Client) dial() (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", c.Addr, c.Timeout)
	if err != nil {
		return nil, fmt.Errorf("wire: dial %s: %w", c.Addr, err)
	}
	deadline := time.Now().Add(c.Timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Have fetches the set of object hashes the server holds for this repo.
func (c *Client) Have() (map[objects.Hash]struct{}, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := writeLine(conn, "HAVE %s", c.RepoName); err != nil {
		return nil, err
	}

	r := bufio.NewReader(conn)
	countLine, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("wire: read have count: %w", err)
	}
	count, err := strconv.Atoi(countLine)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed HAVE count %q", ErrProtocol, countLine)
	}

	set := make(map[objects.Hash]struct{}, count)
	for i := 0; i < count; i++ {
		line, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("wire: read have hash: %w", err)
		}
		h, err := objects.ParseHash(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
		}
		set[h] = struct{}{}
	}
	if end, err := readLine(r); err != nil || end != "END" {
		return nil, fmt.Errorf("%w: expected END, got %q", ErrProtocol, end)
	}
	return set, nil
}

// Push resolves branch's local tip, requires the remote's tip (as
// reported by Have/commit-ancestry) to be an ancestor, and sends every
// object reachable from the local tip that the remote lacks.
func (c *Client) Push(rp *repo.Repo, branch string) error {
	localTip, err := rp.ResolveRef("refs/heads/" + branch)
	if err != nil {
		return fmt.Errorf("wire: push %s: %w", branch, err)
	}

	// Negotiate what the remote already has on its own connection before
	// opening the PUSH connection: the server handles one connection at a
	// time, so a HAVE round trip can't be interleaved inside an
	// already-open PUSH.
	remoteHaves, err := c.Have()
	if err != nil {
		return fmt.Errorf("wire: push %s: %w", branch, err)
	}
	remoteTip, err := newestAncestorIn(rp.Store, localTip, remoteHaves)
	if err != nil {
		return fmt.Errorf("wire: push %s: %w", branch, err)
	}

	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := writeLine(conn, "PUSH %s %s", c.RepoName, branch); err != nil {
		return err
	}
	r := bufio.NewReader(conn)
	if ready, err := readLine(r); err != nil || ready != "READY" {
		return fmt.Errorf("wire: push %s: expected READY, got %q (%v)", branch, ready, err)
	}

	records, err := CollectObjectsForPush(rp.Store, []objects.Hash{localTip}, remoteTipRoots(remoteHaves))
	if err != nil {
		return fmt.Errorf("wire: push %s: %w", branch, err)
	}
	for _, rec := range records {
		if _, already := remoteHaves[rec.ID]; already {
			continue
		}
		if err := writeObjectFrame(conn, rec.ID, rec.Type, rec.Payload); err != nil {
			return fmt.Errorf("wire: push %s: %w", branch, err)
		}
	}
	if err := writeLine(conn, "DONE"); err != nil {
		return err
	}

	oldArg := "NIL"
	if !remoteTip.IsZero() {
		oldArg = remoteTip.String()
	}
	if err := writeLine(conn, "UPDATE %s %s", oldArg, localTip); err != nil {
		return err
	}

	reply, err := readLine(r)
	if err != nil {
		return fmt.Errorf("wire: push %s: read reply: %w", branch, err)
	}
	if strings.HasPrefix(reply, "ERR ") {
		return fmt.Errorf("wire: push %s: %s", branch, strings.TrimPrefix(reply, "ERR "))
	}
	if reply != "OK" {
		return fmt.Errorf("%w: expected OK, got %q", ErrProtocol, reply)
	}
	return nil
}

// newestAncestorIn walks tip's own history newest-first and returns the
// first commit present in haves. HAVE reports the remote's full object
// set, not a branch tip, so the remote's actual tip for this branch is
// whichever of tip's ancestors it has that is closest to tip. Returns
// ZeroHash if tip itself is new to the remote and shares no ancestor.
func newestAncestorIn(store *objects.Store, tip objects.Hash, haves map[objects.Hash]struct{}) (objects.Hash, error) {
	current := tip
	for !current.IsZero() {
		if _, ok := haves[current]; ok {
			return current, nil
		}
		c, err := store.GetCommit(current)
		if err != nil {
			return objects.ZeroHash, fmt.Errorf("wire: walk commit %s: %w", current, err)
		}
		if len(c.ParentIDs) == 0 {
			return objects.ZeroHash, nil
		}
		current = c.ParentIDs[0]
	}
	return objects.ZeroHash, nil
}

func remoteTipRoots(haves map[objects.Hash]struct{}) []objects.Hash {
	roots := make([]objects.Hash, 0, len(haves))
	for h := range haves {
		roots = append(roots, h)
	}
	return roots
}

// Pull fetches branch's remote tip, receives every object the local
// store lacks, and fast-forwards the local ref.
func (c *Client) Pull(rp *repo.Repo, branch string) error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := writeLine(conn, "PULL %s %s", c.RepoName, branch); err != nil {
		return err
	}
	r := bufio.NewReader(conn)
	tipLine, err := readLine(r)
	if err != nil {
		return fmt.Errorf("wire: pull %s: %w", branch, err)
	}
	fields := strings.Fields(tipLine)
	if len(fields) != 2 || fields[0] != "TIP" {
		return fmt.Errorf("%w: expected TIP, got %q", ErrProtocol, tipLine)
	}
	remoteTip, err := objects.ParseHash(fields[1])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	localHaves, err := localReachable(rp, branch)
	if err != nil {
		return err
	}
	if err := writeLine(conn, "HAVE %d", len(localHaves)); err != nil {
		return err
	}
	for _, h := range localHaves {
		if err := writeLine(conn, "%s", h); err != nil {
			return err
		}
	}

	for {
		id, typ, payload, err := readObjectFrame(r)
		if err != nil {
			return fmt.Errorf("wire: pull %s: %w", branch, err)
		}
		if typ == "" {
			break
		}
		computed := objects.HashObject(typ, payload)
		if computed != id {
			return &CorruptObjectError{ID: id, Actual: computed}
		}
		if _, err := rp.Store.Put(typ, payload); err != nil {
			return fmt.Errorf("wire: pull %s: %w", branch, err)
		}
	}

	localTip, err := rp.ResolveRef("refs/heads/" + branch)
	if err != nil {
		localTip = objects.ZeroHash
	}
	if ok, err := IsAncestor(rp.Store, remoteTip, localTip); err != nil {
		return fmt.Errorf("wire: pull %s: %w", branch, err)
	} else if !ok {
		return fmt.Errorf("wire: pull %s: %w", branch, ErrNonFastForward)
	}

	if localTip.IsZero() {
		return rp.CreateBranch(branch, remoteTip)
	}
	return rp.UpdateRefCAS("refs/heads/"+branch, remoteTip, localTip)
}

func localReachable(rp *repo.Repo, branch string) ([]objects.Hash, error) {
	tip, err := rp.ResolveRef("refs/heads/" + branch)
	if err != nil {
		return nil, nil
	}
	set, err := ReachableSet(rp.Store, []objects.Hash{tip})
	if err != nil {
		return nil, err
	}
	out := make([]objects.Hash, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	return out, nil
}

// Clone creates a new repository at dir, populated with every ref and
// reachable object the server holds, and sets HEAD to the server's
// default branch.
func (c *Client) Clone(dir string) (*repo.Repo, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := writeLine(conn, "CLONE %s", c.RepoName); err != nil {
		return nil, err
	}
	r := bufio.NewReader(conn)

	rp, err := repo.Init(dir)
	if err != nil {
		return nil, fmt.Errorf("wire: clone: %w", err)
	}

	refs := make(map[string]objects.Hash)
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("wire: clone: read ref: %w", err)
		}
		if line == "REFS-END" {
			break
		}
		fields := strings.Fields(line)
		if len(fields) != 3 || fields[0] != "REF" {
			return nil, fmt.Errorf("%w: malformed ref line %q", ErrProtocol, line)
		}
		h, err := objects.ParseHash(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
		}
		refs[fields[1]] = h
	}

	for {
		id, typ, payload, err := readObjectFrame(r)
		if err != nil {
			return nil, fmt.Errorf("wire: clone: %w", err)
		}
		if typ == "" {
			break
		}
		computed := objects.HashObject(typ, payload)
		if computed != id {
			return nil, &CorruptObjectError{ID: id, Actual: computed}
		}
		if _, err := rp.Store.Put(typ, payload); err != nil {
			return nil, fmt.Errorf("wire: clone: %w", err)
		}
	}

	for name, h := range refs {
		if err := rp.CreateBranch(name, h); err != nil {
			return nil, fmt.Errorf("wire: clone: create branch %s: %w", name, err)
		}
	}

	headLine, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("wire: clone: read HEAD: %w", err)
	}
	fields := strings.Fields(headLine)
	if len(fields) != 2 || fields[0] != "HEAD" {
		return nil, fmt.Errorf("%w: malformed HEAD line %q", ErrProtocol, headLine)
	}
	if _, hasBranch := refs[fields[1]]; hasBranch {
		if err := rp.Checkout(fields[1], false); err != nil {
			return nil, fmt.Errorf("wire: clone: checkout %s: %w", fields[1], err)
		}
	} else if err := rp.SetHeadSymbolic("refs/heads/" + fields[1]); err != nil {
		return nil, fmt.Errorf("wire: clone: %w", err)
	}

	return rp, nil
}
