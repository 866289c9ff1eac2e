// internal/review/session.go
package review

import (
	"sync"
	"unicode/utf8"

	"go_5_flashcards_keep/internal/model"

	"github.com/google/uuid"
)

// Proposal はレビュー中の候補カード1件の状態です。
// accepted / rejected は排他で、編集は source の再分類のみを行います。
type Proposal struct {
	TempID   uuid.UUID `json:"temp_id"`
	Front    string    `json:"front"`
	Back     string    `json:"back"`
	Source   string    `json:"source"` // ai-full または ai-edited
	Accepted bool      `json:"accepted"`
	Rejected bool      `json:"rejected"`
}

// Session は1回の生成結果に対するレビュー状態を保持します。
// 仕様上セッションを操作する論理的な書き手は1つですが、HTTP経由で
// 同時アクセスされ得るためロックで保護します。
type Session struct {
	mu           sync.RWMutex
	generationID uuid.UUID
	proposals    []*Proposal // 生成順を維持
	index        map[uuid.UUID]*Proposal
}

// NewSession は生成結果から新しいレビューセッションを作成します
func NewSession(generationID uuid.UUID, proposals []*model.FlashcardProposal) *Session {
	s := &Session{
		generationID: generationID,
		proposals:    make([]*Proposal, 0, len(proposals)),
		index:        make(map[uuid.UUID]*Proposal, len(proposals)),
	}
	for _, p := range proposals {
		item := &Proposal{
			TempID: p.TempID,
			Front:  p.Front,
			Back:   p.Back,
			Source: p.Source,
		}
		s.proposals = append(s.proposals, item)
		s.index[item.TempID] = item
	}
	return s
}

func (s *Session) GenerationID() uuid.UUID {
	return s.generationID
}

// Accept は項目を承認状態にします。既に承認済みなら何もしません (冪等)。
// 未知の temp_id はプログラミングエラーとして ErrNotFound を返します。
func (s *Session) Accept(tempID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[tempID]
	if !ok {
		return model.ErrNotFound
	}
	item.Accepted = true
	item.Rejected = false
	return nil
}

// Reject は項目を却下状態にします。却下済み項目はリストに残り、
// 再度 Accept で復帰できます (pending へ戻す操作は提供しません)。
func (s *Session) Reject(tempID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[tempID]
	if !ok {
		return model.ErrNotFound
	}
	item.Rejected = true
	item.Accepted = false
	return nil
}

// Edit は項目の内容を書き換えます。front は1〜200文字、back は1〜500文字。
// 検証に失敗した場合は内容を変更せず VALIDATION_ERROR を返します。
// ai-full の項目を編集すると source は ai-edited に再分類されます。
// accepted / rejected フラグは変更しません。
func (s *Session) Edit(tempID uuid.UUID, front, back string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[tempID]
	if !ok {
		return model.ErrNotFound
	}

	frontLen := utf8.RuneCountInString(front)
	backLen := utf8.RuneCountInString(back)
	if frontLen < 1 || frontLen > 200 {
		return model.NewAppError("VALIDATION_ERROR", "表面は1〜200文字で入力してください。", "front", model.ErrInvalidInput)
	}
	if backLen < 1 || backLen > 500 {
		return model.NewAppError("VALIDATION_ERROR", "裏面は1〜500文字で入力してください。", "back", model.ErrInvalidInput)
	}

	item.Front = front
	item.Back = back
	if item.Source == model.SourceAIFull {
		item.Source = model.SourceAIEdited
	}
	return nil
}

// Reset は全候補とローカル状態を破棄します
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals = nil
	s.index = make(map[uuid.UUID]*Proposal)
}

// Len は残っている候補数を返します (却下済みを含む)
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.proposals)
}

// AcceptedCount は accepted=true の候補数を返します
func (s *Session) AcceptedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.proposals {
		if p.Accepted {
			count++
		}
	}
	return count
}

// NonRejectedCount は rejected=false の候補数を返します ("Save All" の対象)
func (s *Session) NonRejectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.proposals {
		if !p.Rejected {
			count++
		}
	}
	return count
}

// Get は指定IDの候補のコピーを返します
func (s *Session) Get(tempID uuid.UUID) (Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.index[tempID]
	if !ok {
		return Proposal{}, model.ErrNotFound
	}
	return *p, nil
}

// Snapshot は現在の候補一覧のコピーを返します
func (s *Session) Snapshot() []Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		out = append(out, *p)
	}
	return out
}

// selectForCommit はコミット対象候補のコピーを返します
func (s *Session) selectForCommit(acceptedOnly bool) []Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Proposal, 0, len(s.proposals))
	for _, p := range s.proposals {
		if acceptedOnly {
			if p.Accepted {
				out = append(out, *p)
			}
			continue
		}
		if !p.Rejected {
			out = append(out, *p)
		}
	}
	return out
}

// removeCommitted はコミット済み項目をセッションから取り除きます
func (s *Session) removeCommitted(committed []Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[uuid.UUID]bool, len(committed))
	for _, p := range committed {
		removed[p.TempID] = true
	}

	remaining := s.proposals[:0]
	for _, p := range s.proposals {
		if removed[p.TempID] {
			delete(s.index, p.TempID)
			continue
		}
		remaining = append(remaining, p)
	}
	s.proposals = remaining
}
