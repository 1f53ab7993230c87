package hostenv

// Response is the capability surface a resolved asset fetch exposes to the
// kernel-loading routine. It mirrors the response object the kernel expects
// from its host environment, reduced to the calls the kernel actually makes.
//
// A Response never panics and never fails at construction time; genuine I/O
// failures are deferred to the accessor methods so the fetch contract itself
// stays infallible.
type Response interface {
	// ArrayBuffer returns the full body as bytes.
	ArrayBuffer() ([]byte, error)
	// Text returns the full body decoded as a string.
	Text() (string, error)
	// Blob returns the full body as bytes. The kernel treats blobs and
	// array buffers identically outside a browser.
	Blob() ([]byte, error)
	// Clone returns an independent response over the same body.
	Clone() Response
}

// bufferResponse is the concrete filesystem-backed Response: the body is
// fully resolved at construction.
type bufferResponse struct {
	data []byte
}

// NewBufferResponse wraps resolved bytes in a Response. A nil body is the
// empty-body sentinel returned for unresolved assets.
func NewBufferResponse(data []byte) Response {
	return &bufferResponse{data: data}
}

// EmptyResponse returns the zero-length sentinel handed out when an asset
// does not resolve. The kernel probes optional resources and must see an
// empty buffer, not a failure.
func EmptyResponse() Response {
	return &bufferResponse{}
}

func (r *bufferResponse) ArrayBuffer() ([]byte, error) {
	if r.data == nil {
		return []byte{}, nil
	}
	return r.data, nil
}

func (r *bufferResponse) Text() (string, error) {
	return string(r.data), nil
}

func (r *bufferResponse) Blob() ([]byte, error) {
	return r.ArrayBuffer()
}

func (r *bufferResponse) Clone() Response {
	if r.data == nil {
		return &bufferResponse{}
	}
	dup := make([]byte, len(r.data))
	copy(dup, r.data)
	return &bufferResponse{data: dup}
}

// failedResponse defers a genuine I/O failure (permission, corruption) to
// the accessors, preserving the kernel's expectation that fetch itself
// never rejects.
type failedResponse struct {
	err error
}

// NewFailedResponse wraps a recoverable fetch failure in a Response.
func NewFailedResponse(err error) Response {
	return &failedResponse{err: err}
}

func (r *failedResponse) ArrayBuffer() ([]byte, error) { return nil, r.err }
func (r *failedResponse) Text() (string, error)        { return "", r.err }
func (r *failedResponse) Blob() ([]byte, error)        { return nil, r.err }
func (r *failedResponse) Clone() Response              { return &failedResponse{err: r.err} }
