// Package gmail implements mailbox.Mailbox on top of the Gmail API.
//
// Queries are passed to Gmail unchanged, so the full Gmail search syntax is
// available to list_emails. Message bodies are read in "full" format and
// adapted to mailbody.Part so the same extractor serves both backends.
//
// The client is built from an authenticated *http.Client, usually the one
// returned by the google package for the stored OAuth token:
//
//	httpClient, err := google.HTTPClient(ctx, credentialsFile, tokenFile)
//	if err != nil {
//	    return err
//	}
//	client, err := gmail.NewClient(ctx, logger, metrics, option.WithHTTPClient(httpClient))
//	if err != nil {
//	    return err
//	}
//	summaries, err := client.List(ctx, mailbox.ListOptions{Query: "is:unread"})
package gmail
