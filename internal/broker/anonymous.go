package broker

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// AnonymousClassNameHelper names anonymous classes after the place they are declared.
// The name does not depend on where the project is checked out.
type AnonymousClassNameHelper struct {
	fileHelper *FileHelper
}

func NewAnonymousClassNameHelper(fileHelper *FileHelper) *AnonymousClassNameHelper {
	return &AnonymousClassNameHelper{fileHelper: fileHelper}
}

func (h *AnonymousClassNameHelper) GetAnonymousClassName(fileName string, startLine int) string {
	location := h.fileHelper.RelativePath(fileName) + ":" + strconv.Itoa(startLine)
	return "AnonymousClass" + strconv.FormatUint(xxhash.Sum64String(location), 16)
}
