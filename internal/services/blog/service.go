package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/terraconstructs/blogapi/internal/auth"
	"github.com/terraconstructs/blogapi/internal/db/models"
	"github.com/terraconstructs/blogapi/internal/repository"
	"github.com/terraconstructs/blogapi/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "blogapi/services/blog"

var (
	// ErrInvalidInput marks a request rejected by field validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a missing post, comment or author account.
	ErrNotFound = errors.New("not found")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxCommentLength is counted in characters, not bytes.
	MaxCommentLength = 500
)

// Authorizer decides whether a principal may mutate a resource.
// *auth.Service satisfies it.
type Authorizer interface {
	Authorize(principal *auth.Principal, op auth.Operation, kind auth.ResourceKind, authorID *int64) auth.Decision
}

// PostView is the externally visible shape of a post.
type PostView struct {
	ID        int64
	Title     string
	Content   string
	AuthorID  int64
	Author    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentView is the externally visible shape of a comment.
type CommentView struct {
	ID             int64
	PostID         int64
	Content        string
	AuthorID       int64
	AuthorUsername string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PageResult is one page of a listing.
type PageResult[T any] struct {
	Items      []T
	Page       int
	Size       int
	Total      int
	TotalPages int
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title   string
	Content string
}

// Service implements post and comment operations. Every mutation loads the target,
// asks the authorizer, and only then writes.
type Service struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	accounts auth.AccountLookup
	authz    Authorizer
}

// NewService constructs a new Service instance.
func NewService(posts repository.PostRepository, comments repository.CommentRepository, accounts auth.AccountLookup, authz Authorizer) *Service {
	return &Service{posts: posts, comments: comments, accounts: accounts, authz: authz}
}

// NormalizePage applies the default and maximum page size and clamps negative page numbers.
func NormalizePage(page, size int) repository.Page {
	if page < 0 {
		page = 0
	}
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return repository.Page{Number: page, Size: size}
}

// CreatePost stores a new post owned by the principal.
func (s *Service) CreatePost(ctx context.Context, principal *auth.Principal, in PostInput) (*PostView, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "blog.CreatePost")
	defer span.End()

	if err := s.authorize(span, principal, auth.OpCreate, auth.KindPost, nil); err != nil {
		return nil, err
	}
	in, err := validatePost(in)
	if err != nil {
		return nil, err
	}

	post := &models.Post{Title: in.Title, Content: in.Content, AuthorID: principal.ID}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID)
}

// GetPost returns a single post. Reads are public.
func (s *Service) GetPost(ctx context.Context, id int64) (*PostView, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	return toPostView(post), nil
}

// ListPosts returns posts newest first.
func (s *Service) ListPosts(ctx context.Context, page, size int) (*PageResult[PostView], error) {
	p := NormalizePage(page, size)
	posts, total, err := s.posts.List(ctx, p)
	if err != nil {
		return nil, err
	}

	items := make([]PostView, 0, len(posts))
	for i := range posts {
		items = append(items, *toPostView(&posts[i]))
	}
	return newPageResult(items, p, total), nil
}

// UpdatePost replaces title and content. The author is never changed, even when an
// administrator edits someone else's post.
func (s *Service) UpdatePost(ctx context.Context, principal *auth.Principal, id int64, in PostInput) (*PostView, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "blog.UpdatePost", attribute.Int64(telemetry.AttrPostID, id))
	defer span.End()

	if principal == nil {
		return nil, s.authorize(span, nil, auth.OpUpdate, auth.KindPost, nil)
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	if err := s.authorize(span, principal, auth.OpUpdate, auth.KindPost, &post.AuthorID); err != nil {
		return nil, err
	}
	in, err = validatePost(in)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, notFound(err, "post", id)
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes a post and its comments.
func (s *Service) DeletePost(ctx context.Context, principal *auth.Principal, id int64) error {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "blog.DeletePost", attribute.Int64(telemetry.AttrPostID, id))
	defer span.End()

	if principal == nil {
		return s.authorize(span, nil, auth.OpDelete, auth.KindPost, nil)
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "post", id)
	}
	if err := s.authorize(span, principal, auth.OpDelete, auth.KindPost, &post.AuthorID); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return notFound(err, "post", id)
	}
	return nil
}

// CreateComment adds a comment by the principal to an existing post.
func (s *Service) CreateComment(ctx context.Context, principal *auth.Principal, postID int64, content string) (*CommentView, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "blog.CreateComment", attribute.Int64(telemetry.AttrPostID, postID))
	defer span.End()

	if err := s.authorize(span, principal, auth.OpCreate, auth.KindComment, nil); err != nil {
		return nil, err
	}
	content, err := validateComment(content)
	if err != nil {
		return nil, err
	}

	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, notFound(err, "post", postID)
	}
	author, err := s.accounts.FindByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: account %d", ErrNotFound, principal.ID)
		}
		return nil, err
	}

	comment := &models.Comment{PostID: postID, Content: content, AuthorID: author.ID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.getComment(ctx, comment.ID)
}

// ListComments returns a post's comments in creation order. An unknown post yields an
// empty page.
func (s *Service) ListComments(ctx context.Context, postID int64, page, size int) (*PageResult[CommentView], error) {
	p := NormalizePage(page, size)
	comments, total, err := s.comments.ListByPost(ctx, postID, p)
	if err != nil {
		return nil, err
	}

	items := make([]CommentView, 0, len(comments))
	for i := range comments {
		items = append(items, *toCommentView(&comments[i]))
	}
	return newPageResult(items, p, total), nil
}

// UpdateComment replaces the content of a comment.
func (s *Service) UpdateComment(ctx context.Context, principal *auth.Principal, id int64, content string) (*CommentView, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "blog.UpdateComment", attribute.Int64(telemetry.AttrCommentID, id))
	defer span.End()

	if principal == nil {
		return nil, s.authorize(span, nil, auth.OpUpdate, auth.KindComment, nil)
	}

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "comment", id)
	}
	if err := s.authorize(span, principal, auth.OpUpdate, auth.KindComment, &comment.AuthorID); err != nil {
		return nil, err
	}
	content, err = validateComment(content)
	if err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, notFound(err, "comment", id)
	}
	return s.getComment(ctx, id)
}

// DeleteComment removes a single comment.
func (s *Service) DeleteComment(ctx context.Context, principal *auth.Principal, id int64) error {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "blog.DeleteComment", attribute.Int64(telemetry.AttrCommentID, id))
	defer span.End()

	if principal == nil {
		return s.authorize(span, nil, auth.OpDelete, auth.KindComment, nil)
	}

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "comment", id)
	}
	if err := s.authorize(span, principal, auth.OpDelete, auth.KindComment, &comment.AuthorID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return notFound(err, "comment", id)
	}
	return nil
}

// authorize asks the authorizer and records a denial on the span.
func (s *Service) authorize(span trace.Span, principal *auth.Principal, op auth.Operation, kind auth.ResourceKind, authorID *int64) error {
	decision := s.authz.Authorize(principal, op, kind, authorID)
	if decision.Allowed {
		return nil
	}
	telemetry.AddEvent(span, "authorization.denied",
		attribute.String(telemetry.AttrPolicyOperation, string(op)),
		attribute.String(telemetry.AttrPolicyKind, string(kind)),
		attribute.String(telemetry.AttrPolicyReason, string(decision.Reason)),
	)
	return decision.Err()
}

func (s *Service) getComment(ctx context.Context, id int64) (*CommentView, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "comment", id)
	}
	return toCommentView(comment), nil
}

func validatePost(in PostInput) (PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Content) == "" {
		return in, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return in, nil
}

func validateComment(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return "", fmt.Errorf("%w: content must be at most %d characters", ErrInvalidInput, MaxCommentLength)
	}
	return content, nil
}

// notFound rewrites repository misses as ErrNotFound and passes other errors through.
func notFound(err error, kind string, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
	}
	return err
}

func newPageResult[T any](items []T, p repository.Page, total int) *PageResult[T] {
	totalPages := 0
	if p.Size > 0 {
		totalPages = (total + p.Size - 1) / p.Size
	}
	return &PageResult[T]{
		Items:      items,
		Page:       p.Number,
		Size:       p.Size,
		Total:      total,
		TotalPages: totalPages,
	}
}

func toPostView(p *models.Post) *PostView {
	view := &PostView{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		AuthorID:  p.AuthorID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Author != nil {
		view.Author = p.Author.Username
	}
	return view
}

func toCommentView(c *models.Comment) *CommentView {
	view := &CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		Content:   c.Content,
		AuthorID:  c.AuthorID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Author != nil {
		view.AuthorUsername = c.Author.Username
	}
	return view
}
