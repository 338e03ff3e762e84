package native

import (
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/shopware/php-analyser/internal/cache"
	"github.com/shopware/php-analyser/internal/php"
)

// variadicFunctionNames read the arguments of the calling function no matter how many
// parameters it declares
var variadicFunctionNames = []string{"func_get_args", "func_get_arg", "func_num_args"}

// bodyAnalyser answers questions about function bodies. Answers are cached under the
// hash of the body text, so an edited body is analysed again.
type bodyAnalyser struct {
	parser   *php.Parser
	cache    *cache.Cache
	readFile func(path string) ([]byte, error)
}

func newBodyAnalyser(parser *php.Parser, c *cache.Cache) *bodyAnalyser {
	return &bodyAnalyser{parser: parser, cache: c, readFile: os.ReadFile}
}

// callsVariadicFunctions reports whether the body of fn, declared in file, reads its
// arguments dynamically. owner names the function for the cache key.
func (a *bodyAnalyser) callsVariadicFunctions(owner, file string, fn *php.FunctionLike) bool {
	if !fn.HasBody || file == "" || a.parser == nil {
		return false
	}

	content, err := a.readFile(file)
	if err != nil {
		log.Debugf("cannot analyse body of %s: %v", owner, err)
		return false
	}
	if fn.BodyStart > fn.BodyEnd || fn.BodyEnd > uint(len(content)) {
		log.Debugf("body of %s is out of date in %s", owner, file)
		return false
	}

	body := content[fn.BodyStart:fn.BodyEnd]
	key := "variadic-" + strings.ToLower(owner) + "-" + strconv.FormatUint(xxhash.Sum64(body), 16)

	var result bool
	if a.cache != nil && a.cache.Load(key, &result) {
		return result
	}

	result = a.parser.HasFunctionCall(content, fn.BodyStart, fn.BodyEnd, variadicFunctionNames...)

	if a.cache != nil {
		if err := a.cache.Save(key, result); err != nil {
			log.Warningf("failed to cache body analysis of %s: %v", owner, err)
		}
	}
	return result
}
