package models

import "fmt"

// TargetKind names the entity a like or comment points at.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetTweet   TargetKind = "tweet"
	TargetComment TargetKind = "comment"
)

// Target is a reference to exactly one likeable or commentable entity.
// It is persisted as a (target_type, target_id) column pair.
type Target struct {
	Kind TargetKind
	ID   uint
}

func VideoTarget(id uint) Target   { return Target{Kind: TargetVideo, ID: id} }
func TweetTarget(id uint) Target   { return Target{Kind: TargetTweet, ID: id} }
func CommentTarget(id uint) Target { return Target{Kind: TargetComment, ID: id} }

// ParseTargetKind validates a kind received from a request path.
func ParseTargetKind(raw string) (TargetKind, error) {
	switch k := TargetKind(raw); k {
	case TargetVideo, TargetTweet, TargetComment:
		return k, nil
	}
	return "", NewValidationError(fmt.Sprintf("Unsupported target type %q", raw))
}

// Validate checks the kind and id.
func (t Target) Validate() error {
	if _, err := ParseTargetKind(string(t.Kind)); err != nil {
		return err
	}
	if t.ID == 0 {
		return NewValidationError(fmt.Sprintf("Invalid %s ID", t.Kind))
	}
	return nil
}

// Commentable reports whether comments may be attached to the target.
func (t Target) Commentable() bool {
	return t.Kind == TargetVideo || t.Kind == TargetTweet
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}
