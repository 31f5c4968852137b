package aspect

import (
	"fmt"

	"github.com/google/uuid"
)

const proceedPrefix = "proceed"

// ProceedName derives the identifier of a generated proceed method. The name
// is stable across builds for the same bean, method and chain position.
func ProceedName(beanID, method string, position int) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s|%s|%d", beanID, method, position)))

	letters := make([]byte, 10)
	for i := range letters {
		letters[i] = 'A' + id[i]%26
	}
	return proceedPrefix + string(letters)
}
