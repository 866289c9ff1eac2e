//go:generate mockery --name FlashcardCreator --output ./mocks --outpkg mocks --case=underscore

// internal/review/committer.go
package review

import (
	"context"
	"fmt"

	"go_5_flashcards_keep/internal/middleware"
	"go_5_flashcards_keep/internal/model"

	"github.com/google/uuid"
)

// FlashcardCreator は永続化境界です。1バッチは原子的に全件成功するか
// 全件失敗します (トランザクション範囲は実装側の責務)。
type FlashcardCreator interface {
	CreateFlashcards(ctx context.Context, tenantID uuid.UUID, items []model.CreateFlashcardItem) ([]*model.Flashcard, error)
}

// Committer はレビュー済み候補を1回のバッチ呼び出しでフラッシュカード化します
type Committer struct {
	creator FlashcardCreator
	bus     *Bus
}

func NewCommitter(creator FlashcardCreator, bus *Bus) *Committer {
	return &Committer{creator: creator, bus: bus}
}

// CommitAccepted は accepted=true の候補のみを保存します
func (c *Committer) CommitAccepted(ctx context.Context, tenantID uuid.UUID, session *Session) (int, error) {
	return c.commit(ctx, tenantID, session, true)
}

// CommitAll は rejected=false の候補を accepted フラグに関わらず保存します
func (c *Committer) CommitAll(ctx context.Context, tenantID uuid.UUID, session *Session) (int, error) {
	return c.commit(ctx, tenantID, session, false)
}

func (c *Committer) commit(ctx context.Context, tenantID uuid.UUID, session *Session, acceptedOnly bool) (int, error) {
	logger := middleware.GetLogger(ctx).With("tenant_id", tenantID, "generation_id", session.GenerationID())

	selected := session.selectForCommit(acceptedOnly)
	if len(selected) == 0 {
		return 0, model.NewAppError("EMPTY_COMMIT", "保存対象のカードがありません。", "", model.ErrInvalidInput)
	}

	generationID := session.GenerationID()
	items := make([]model.CreateFlashcardItem, 0, len(selected))
	for _, p := range selected {
		gid := generationID
		items = append(items, model.CreateFlashcardItem{
			Front:        p.Front,
			Back:         p.Back,
			Source:       p.Source, // ai-full または ai-edited (このパスで generation_id がnilになることはない)
			GenerationID: &gid,
		})
	}

	if _, err := c.creator.CreateFlashcards(ctx, tenantID, items); err != nil {
		// 失敗時はセッションを変更しない (楽観的な削除は行わない)。リトライは呼び出し側の判断。
		logger.Error("Batch commit failed, review state left unchanged", "error", err, "count", len(items))
		c.publish(Notification{Type: NotifyError, Message: "カードの保存に失敗しました。再度お試しください。"})
		return 0, err
	}

	session.removeCommitted(selected)
	if session.Len() == 0 {
		session.Reset()
	}

	logger.Info("Batch commit succeeded", "count", len(items))
	c.publish(Notification{Type: NotifySuccess, Message: fmt.Sprintf("%d枚のカードを保存しました。", len(items))})
	return len(items), nil
}

func (c *Committer) publish(n Notification) {
	if c.bus != nil {
		c.bus.Publish(n)
	}
}
