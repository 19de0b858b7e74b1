package record

import "strconv"

// --------------------------------------------------------------------------
// Account
// --------------------------------------------------------------------------

// Account is the stored account record. CreatedAt is milliseconds since
// epoch, stamped by the node that first accepted the account.
type Account struct {
	ID           string
	Name         string
	PasswordHash string
	CreatedAt    int64
}

// Form serializes the account in its canonical field order.
func (a Account) Form() string {
	return BuildForm([]Pair{
		{"id", a.ID},
		{"name", a.Name},
		{"password_hash", a.PasswordHash},
		{"created_at", strconv.FormatInt(a.CreatedAt, 10)},
	})
}

// AccountFromForm rebuilds an account from a decoded body. The zero ID marks
// a blob that does not carry an account.
func AccountFromForm(f Form) Account {
	return Account{
		ID:           f["id"],
		Name:         f["name"],
		PasswordHash: f["password_hash"],
		CreatedAt:    f.Int64("created_at", 0),
	}
}

// --------------------------------------------------------------------------
// Post
// --------------------------------------------------------------------------

// Post is the stored post record. The title index stores the same type with
// Content left empty.
type Post struct {
	ID        string
	AccountID string
	Title     string
	Content   string
	CreatedAt int64
}

// Form serializes the full post record.
func (p Post) Form() string {
	return BuildForm([]Pair{
		{"id", p.ID},
		{"account_id", p.AccountID},
		{"title", p.Title},
		{"content", p.Content},
		{"created_at", strconv.FormatInt(p.CreatedAt, 10)},
	})
}

// TitleForm serializes the title-index projection of the post: everything
// except the content.
func (p Post) TitleForm() string {
	return BuildForm([]Pair{
		{"id", p.ID},
		{"account_id", p.AccountID},
		{"title", p.Title},
		{"created_at", strconv.FormatInt(p.CreatedAt, 10)},
	})
}

// PostFromForm rebuilds a post (or a title projection) from a decoded body.
func PostFromForm(f Form) Post {
	return Post{
		ID:        f["id"],
		AccountID: f["account_id"],
		Title:     f["title"],
		Content:   f["content"],
		CreatedAt: f.Int64("created_at", 0),
	}
}
