package library

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message shown once to the user. Texts are fixed per
// operation and never carry error detail.
type Notice struct {
	Kind    NoticeKind
	Message string
}

const (
	MsgAdded          = "Book added successfully!"
	MsgAddFailed      = "Failed to add book"
	MsgUpdated        = "Book updated successfully!"
	MsgUpdateFailed   = "Failed to update book"
	MsgDeleted        = "Book deleted successfully!"
	MsgDeleteFailed   = "Failed to delete book"
	MsgLoadFailed     = "Failed to load books"
	MsgFieldsRequired = "Title and author are required"
	MsgInvalidYear    = "Year must be a whole number"
	MsgLoggedIn       = "Successfully logged in!"
	MsgSignedUp       = "Account created successfully!"
	MsgLoginFailed    = "Failed to log in"
	MsgSignupFailed   = "Failed to create an account"
	MsgLogoutFailed   = "Failed to log out"
	MsgEmptyLibrary   = "No books in your library yet."
)

func SuccessNotice(msg string) Notice { return Notice{Kind: NoticeSuccess, Message: msg} }
func ErrorNotice(msg string) Notice   { return Notice{Kind: NoticeError, Message: msg} }
