package embedding

import "github.com/jonathan/resume-screener/internal/types"

var errCapabilityClosed = types.NewError(types.KindConfiguration, "embedding capability is closed")
