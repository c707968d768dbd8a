package market

import "fmt"

// ErrorKind groups market errors for callers that map them to transport codes
type ErrorKind int

const (
	KindAccount ErrorKind = iota
	KindState
	KindEconomic
	KindAuthorization
)

// Error is a rejected market transition. Values are singletons so callers
// compare them with errors.Is.
type Error struct {
	Code int
	Name string
	Msg  string
	Kind ErrorKind
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}

func newError(code int, name, msg string, kind ErrorKind) *Error {
	return &Error{Code: code, Name: name, Msg: msg, Kind: kind}
}

var (
	ErrTokenMintToFailed              = newError(6000, "TokenMintToFailed", "Token mint to failed", KindAccount)
	ErrTokenSetAuthorityFailed        = newError(6001, "TokenSetAuthorityFailed", "Token set authority failed", KindAccount)
	ErrTokenTransferFailed            = newError(6002, "TokenTransferFailed", "Token transfer failed", KindAccount)
	ErrInvalidMintAccount             = newError(6003, "InvalidMintAccount", "Invalid mint account", KindAccount)
	ErrInvalidTokenAccount            = newError(6004, "InvalidTokenAccount", "Invalid token account", KindAccount)
	ErrMintAmountIsZero               = newError(6005, "MintAmountIsZero", "Mint amount is zero", KindEconomic)
	ErrInvalidPrice                   = newError(6006, "InvalidPrice", "Invalid price", KindEconomic)
	ErrInvalidSaleState               = newError(6007, "InvalidSaleState", "Invalid sale state", KindState)
	ErrNotEnoughTokenAmount           = newError(6008, "NotEnoughTokenAmount", "Not enough token amount", KindEconomic)
	ErrInvalidBidder                  = newError(6009, "InvalidBidder", "Invalid bidder", KindAuthorization)
	ErrInvalidAmount                  = newError(6010, "InvalidAmount", "Invalid amount", KindEconomic)
	ErrInvalidSeller                  = newError(6011, "InvalidSeller", "Invalid seller", KindAuthorization)
	ErrInvalidPoolAccount             = newError(6012, "InvalidPoolAccount", "Invalid pool account", KindAccount)
	ErrInvalidSaleManagerAccount      = newError(6013, "InvalidSaleManagerAccount", "Invalid sale manager account", KindAccount)
	ErrInvalidSalePotAccount          = newError(6014, "InvalidSalePotAccount", "Invalid sale pot account", KindAccount)
	ErrInvalidAuctionDataAccount      = newError(6015, "InvalidAuctionDataAccount", "Invalid auction data account", KindAccount)
	ErrInvalidPrevBidderToken         = newError(6016, "InvalidPrevBidderToken", "Invalid previous bidder token account", KindAccount)
	ErrInvalidMetadata                = newError(6017, "InvalidMetadata", "Invalid metadata account", KindAccount)
	ErrInvalidAuctionState            = newError(6018, "InvalidAuctionState", "Invalid auction state", KindState)
	ErrInvalidAuctionMode             = newError(6019, "InvalidAuctionMode", "Invalid auction mode", KindState)
	ErrEndedAuction                   = newError(6020, "EndedAuction", "Auction has ended", KindState)
	ErrAlreadyInitialized             = newError(6021, "AlreadyInitialized", "Account already initialized", KindState)
	ErrNotEnoughTokenAmountForGapTick = newError(6022, "NotEnoughTokenAmountForGapTick", "Bid does not clear the gap tick", KindEconomic)
	ErrInvalidDuration                = newError(6023, "InvalidDuration", "Invalid auction duration", KindEconomic)
	ErrInvalidOwner                   = newError(6024, "InvalidOwner", "Invalid owner", KindAuthorization)
)
