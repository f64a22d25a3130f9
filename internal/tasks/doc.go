// Package tasks adapts the Google Tasks API (tasks/v1) to host.Source.
//
// Task lists are containers and tasks are items. Google Tasks has no
// creation timestamp or priority: the last update time stands in for both
// created and modified times, and priority is always zero. Due dates carry
// no time of day and are mapped to midnight in the client's time zone.
//
// # Example Usage
//
//	conf, _ := auth.OAuthConfig(auth.ProviderGoogle, creds)
//	tok, _ := auth.LoadToken(auth.TokenPath(auth.ProviderGoogle))
//	src := auth.NewCachingSource(ctx, conf, tok, auth.TokenPath(auth.ProviderGoogle), nil)
//
//	client, err := tasks.NewClient(ctx, auth.HTTPClient(ctx, src))
//	if err != nil {
//	    return err
//	}
//	lists, err := client.ListContainers(ctx)
package tasks
