package apikit

// SuccessHook is invoked once for every request that completes with a 2xx
// status.
type SuccessHook func(*Response)

// ErrorHook is invoked once for every request that fails. res is nil when
// the transport itself failed before a response was read.
type ErrorHook func(res *Response, err error)

// notifySuccess runs the success hooks. A panicking hook must not break the
// request path, the result is already determined at this point.
func (c *Client) notifySuccess(res *Response) {
	for _, h := range c.onSuccess {
		c.runHook(func() { h(res) })
	}
}

// notifyError runs the error hooks.
func (c *Client) notifyError(res *Response, err error) {
	for _, h := range c.onError {
		c.runHook(func() { h(res, err) })
	}
}

func (c *Client) runHook(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("Notification hook panicked")
		}
	}()
	fn()
}
