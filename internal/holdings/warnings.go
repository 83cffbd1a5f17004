package holdings

import (
	"fmt"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
)

func sellExceedsAvailableWarning(a domain.Activity) string {
	return fmt.Sprintf("activity %s: sell quantity exceeds available lots for asset %s; consumed all available", a.ID, a.AssetID)
}

func deprecatedTransferWarning(a domain.Activity, from, to string) string {
	return fmt.Sprintf("activity %s: %s on non-cash asset %s is deprecated, treated as %s", a.ID, from, a.AssetID, to)
}
