package imapmail

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

type fakeMessage struct {
	envelope *imap.Envelope
	raw      []byte
}

type appended struct {
	mailbox string
	flags   []imap.Flag
	date    time.Time
	raw     []byte
}

type moved struct {
	uid  imap.UID
	from string
	to   string
}

// fakeServer is an in-memory IMAP server shared by all sessions it dials.
type fakeServer struct {
	mu        sync.Mutex
	mailboxes map[string]map[imap.UID]*fakeMessage
	list      []*imap.ListData
	listErr   error
	appendErr error
	dialErr   error

	dials     int
	closed    int
	criteria  []*imap.SearchCriteria
	selected  []string
	readOnly  []bool
	appended  []appended
	moved     []moved
	listCalls int
}

func newFakeServer(names ...string) *fakeServer {
	f := &fakeServer{mailboxes: make(map[string]map[imap.UID]*fakeMessage)}
	for _, name := range names {
		f.mailboxes[name] = make(map[imap.UID]*fakeMessage)
		f.list = append(f.list, &imap.ListData{
			Attrs:   []imap.MailboxAttr{imap.MailboxAttrHasNoChildren},
			Delim:   '/',
			Mailbox: name,
		})
	}
	return f
}

func (f *fakeServer) add(mailbox string, uid imap.UID, env *imap.Envelope, raw string) {
	f.mailboxes[mailbox][uid] = &fakeMessage{envelope: env, raw: []byte(raw)}
}

func (f *fakeServer) Dial(ctx context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	f.dials++
	return &fakeSession{srv: f}, nil
}

type fakeSession struct {
	srv      *fakeServer
	selected string
}

func (s *fakeSession) List(reference, pattern string) ([]*imap.ListData, error) {
	s.srv.mu.Lock()
	defer s.srv.mu.Unlock()
	s.srv.listCalls++
	if s.srv.listErr != nil {
		return nil, s.srv.listErr
	}
	return s.srv.list, nil
}

func (s *fakeSession) Select(mailbox string, readOnly bool) error {
	s.srv.mu.Lock()
	defer s.srv.mu.Unlock()
	if _, ok := s.srv.mailboxes[mailbox]; !ok {
		return errors.New("NO mailbox does not exist")
	}
	s.selected = mailbox
	s.srv.selected = append(s.srv.selected, mailbox)
	s.srv.readOnly = append(s.srv.readOnly, readOnly)
	return nil
}

func (s *fakeSession) Search(criteria *imap.SearchCriteria) ([]imap.UID, error) {
	s.srv.mu.Lock()
	defer s.srv.mu.Unlock()
	s.srv.criteria = append(s.srv.criteria, criteria)

	var uids []imap.UID
	for uid := range s.srv.mailboxes[s.selected] {
		if len(criteria.UID) > 0 && !inUIDSets(criteria.UID, uid) {
			continue
		}
		uids = append(uids, uid)
	}
	return uids, nil
}

func inUIDSets(sets []imap.UIDSet, uid imap.UID) bool {
	for _, set := range sets {
		for _, r := range set {
			if uid >= r.Start && (r.Stop == 0 || uid <= r.Stop) {
				return true
			}
		}
	}
	return false
}

func (s *fakeSession) FetchEnvelopes(uids []imap.UID) ([]*imapclient.FetchMessageBuffer, error) {
	s.srv.mu.Lock()
	defer s.srv.mu.Unlock()
	var bufs []*imapclient.FetchMessageBuffer
	for _, uid := range uids {
		if m, ok := s.srv.mailboxes[s.selected][uid]; ok {
			bufs = append(bufs, &imapclient.FetchMessageBuffer{UID: uid, Envelope: m.envelope})
		}
	}
	return bufs, nil
}

func (s *fakeSession) FetchRaw(uid imap.UID) ([]byte, error) {
	s.srv.mu.Lock()
	defer s.srv.mu.Unlock()
	if m, ok := s.srv.mailboxes[s.selected][uid]; ok {
		return m.raw, nil
	}
	return nil, nil
}

func (s *fakeSession) Append(mailbox string, flags []imap.Flag, date time.Time, raw []byte) error {
	s.srv.mu.Lock()
	defer s.srv.mu.Unlock()
	if s.srv.appendErr != nil {
		return s.srv.appendErr
	}
	s.srv.appended = append(s.srv.appended, appended{mailbox: mailbox, flags: flags, date: date, raw: raw})
	return nil
}

func (s *fakeSession) Move(uid imap.UID, mailbox string) error {
	s.srv.mu.Lock()
	defer s.srv.mu.Unlock()
	s.srv.moved = append(s.srv.moved, moved{uid: uid, from: s.selected, to: mailbox})
	return nil
}

func (s *fakeSession) Close() error {
	s.srv.mu.Lock()
	defer s.srv.mu.Unlock()
	s.srv.closed++
	return nil
}

// fakeSubmitter records submitted messages.
type fakeSubmitter struct {
	err  error
	from string
	to   []string
	msg  []byte
}

func (f *fakeSubmitter) Submit(_ context.Context, from string, to []string, msg []byte) error {
	if f.err != nil {
		return f.err
	}
	f.from, f.to, f.msg = from, to, msg
	return nil
}
